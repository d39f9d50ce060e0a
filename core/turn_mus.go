package core

import (
	"time"

	"github.com/mus-format/mus-go/ord"
	"github.com/mus-format/mus-go/varint"
)

// Binary serializers for chat turns, in the mus-go Serializer shape
// (Marshal/Unmarshal/Size/Skip). Timestamps are stored as Unix microseconds.

var (
	IDMUS       = idMUS{}
	SpeakerMUS  = speakerMUS{}
	ChatTurnMUS = chatTurnMUS{}
)

type idMUS struct{}

func (s idMUS) Marshal(v ID, bs []byte) (n int) {
	return varint.Uint64.Marshal(uint64(v), bs)
}

func (s idMUS) Unmarshal(bs []byte) (v ID, n int, err error) {
	tmp, n, err := varint.Uint64.Unmarshal(bs)
	if err != nil {
		return
	}
	v = ID(tmp)
	return
}

func (s idMUS) Size(v ID) (size int) {
	return varint.Uint64.Size(uint64(v))
}

func (s idMUS) Skip(bs []byte) (n int, err error) {
	return varint.Uint64.Skip(bs)
}

type speakerMUS struct{}

func (s speakerMUS) Marshal(v Speaker, bs []byte) (n int) {
	return varint.Int64.Marshal(int64(v), bs)
}

func (s speakerMUS) Unmarshal(bs []byte) (v Speaker, n int, err error) {
	tmp, n, err := varint.Int64.Unmarshal(bs)
	if err != nil {
		return
	}
	v = Speaker(tmp)
	return
}

func (s speakerMUS) Size(v Speaker) (size int) {
	return varint.Int64.Size(int64(v))
}

func (s speakerMUS) Skip(bs []byte) (n int, err error) {
	return varint.Int64.Skip(bs)
}

type chatTurnMUS struct{}

func (s chatTurnMUS) Marshal(v ChatTurn, bs []byte) (n int) {
	n = varint.Uint64.Marshal(v.Seq, bs)
	n += SpeakerMUS.Marshal(v.Speaker, bs[n:])
	n += ord.String.Marshal(v.Text, bs[n:])
	return n + varint.Int64.Marshal(v.Timestamp.UnixMicro(), bs[n:])
}

func (s chatTurnMUS) Unmarshal(bs []byte) (v ChatTurn, n int, err error) {
	v.Seq, n, err = varint.Uint64.Unmarshal(bs)
	if err != nil {
		return
	}
	var n1 int
	v.Speaker, n1, err = SpeakerMUS.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	v.Text, n1, err = ord.String.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	var micros int64
	micros, n1, err = varint.Int64.Unmarshal(bs[n:])
	n += n1
	if err != nil {
		return
	}
	v.Timestamp = time.UnixMicro(micros).UTC()
	return
}

func (s chatTurnMUS) Size(v ChatTurn) (size int) {
	size = varint.Uint64.Size(v.Seq)
	size += SpeakerMUS.Size(v.Speaker)
	size += ord.String.Size(v.Text)
	return size + varint.Int64.Size(v.Timestamp.UnixMicro())
}

func (s chatTurnMUS) Skip(bs []byte) (n int, err error) {
	n, err = varint.Uint64.Skip(bs)
	if err != nil {
		return
	}
	var n1 int
	n1, err = SpeakerMUS.Skip(bs[n:])
	n += n1
	if err != nil {
		return
	}
	n1, err = ord.String.Skip(bs[n:])
	n += n1
	if err != nil {
		return
	}
	n1, err = varint.Int64.Skip(bs[n:])
	n += n1
	return
}
