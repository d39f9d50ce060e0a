// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package core

import (
	"encoding/binary"
	"encoding/json"
	"time"

	"github.com/go-crypt/x/blake2b"
)

// ID is a unique identifier for domain entities.
// It is generated using content-based hashing or repository sequences.
type ID uint64

// IDFromContent generates a deterministic ID from content using BLAKE2b hashing.
// This ensures that identical content produces identical IDs.
func IDFromContent(content []byte) ID {
	h, _ := blake2b.New(8, nil) // 8 bytes = 64 bits
	h.Write(content)
	sum := h.Sum(nil)
	return ID(binary.LittleEndian.Uint64(sum))
}

// File is an uploaded document: its name and raw bytes.
// Neither field is modified after the file is submitted.
type File struct {
	Name string
	Data []byte
}

// Fingerprint identifies the file's content independently of its name.
func (f File) Fingerprint() ID {
	return IDFromContent(f.Data)
}

// FileStatus is the lifecycle state of a FileRecord.
type FileStatus int

const (
	// FileStatusQueued is the state of a freshly submitted file.
	FileStatusQueued FileStatus = iota + 1
	// FileStatusProcessing means extraction has been dispatched.
	FileStatusProcessing
	// FileStatusProcessed means extraction succeeded and text is available.
	FileStatusProcessed
	// FileStatusErrored means extraction failed and an error detail is available.
	FileStatusErrored
)

func (s FileStatus) String() string {
	switch s {
	case FileStatusQueued:
		return "queued"
	case FileStatusProcessing:
		return "processing"
	case FileStatusProcessed:
		return "processed"
	case FileStatusErrored:
		return "error"
	default:
		return "unknown"
	}
}

// Terminal reports whether no further transition is possible.
func (s FileStatus) Terminal() bool {
	return s == FileStatusProcessed || s == FileStatusErrored
}

// MarshalText implements encoding.TextMarshaler.
func (s FileStatus) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// FileRecord tracks one uploaded file through a single ingestion batch.
//
// The zero value is not valid; use NewFileRecord. Records are values:
// every transition returns a new record and leaves the receiver untouched.
// Text is only observable on Processed records and the error detail only
// on Errored records.
type FileRecord struct {
	id     ID
	file   File
	status FileStatus
	text   string
	detail string
}

// NewFileRecord creates a Queued record for the file.
func NewFileRecord(file File) FileRecord {
	return FileRecord{
		id:     file.Fingerprint(),
		file:   file,
		status: FileStatusQueued,
	}
}

func (r FileRecord) ID() ID             { return r.id }
func (r FileRecord) Name() string       { return r.file.Name }
func (r FileRecord) File() File         { return r.file }
func (r FileRecord) Status() FileStatus { return r.status }

// Text returns the extracted text. ok is false unless the record is Processed.
func (r FileRecord) Text() (text string, ok bool) {
	if r.status != FileStatusProcessed {
		return "", false
	}
	return r.text, true
}

// ErrorDetail returns the failure message. ok is false unless the record is Errored.
func (r FileRecord) ErrorDetail() (detail string, ok bool) {
	if r.status != FileStatusErrored {
		return "", false
	}
	return r.detail, true
}

// Start moves a Queued record to Processing.
func (r FileRecord) Start() (FileRecord, error) {
	if r.status != FileStatusQueued {
		return r, transitionError(r.status, FileStatusProcessing)
	}
	r.status = FileStatusProcessing
	return r, nil
}

// Complete moves a Processing record to Processed, storing the extracted text.
func (r FileRecord) Complete(text string) (FileRecord, error) {
	if r.status != FileStatusProcessing {
		return r, transitionError(r.status, FileStatusProcessed)
	}
	r.status = FileStatusProcessed
	r.text = text
	return r, nil
}

// Fail moves a Processing record to Errored, storing the failure's message.
func (r FileRecord) Fail(cause error) (FileRecord, error) {
	if r.status != FileStatusProcessing {
		return r, transitionError(r.status, FileStatusErrored)
	}
	r.status = FileStatusErrored
	if cause != nil {
		r.detail = cause.Error()
	} else {
		r.detail = "an unknown error occurred"
	}
	return r, nil
}

type fileRecordJSON struct {
	Name   string     `json:"name"`
	Size   int        `json:"size"`
	Status FileStatus `json:"status"`
	Text   string     `json:"text,omitempty"`
	Error  string     `json:"error,omitempty"`
}

// MarshalJSON renders the record without the raw file bytes.
func (r FileRecord) MarshalJSON() ([]byte, error) {
	out := fileRecordJSON{
		Name:   r.file.Name,
		Size:   len(r.file.Data),
		Status: r.status,
	}
	out.Text, _ = r.Text()
	out.Error, _ = r.ErrorDetail()
	return json.Marshal(out)
}

// Speaker identifies the author of a chat turn.
type Speaker int

const (
	// SpeakerUser is the person asking questions.
	SpeakerUser Speaker = iota + 1
	// SpeakerModel is the inference service (or the system speaking on its behalf).
	SpeakerModel
)

func (s Speaker) String() string {
	switch s {
	case SpeakerUser:
		return "user"
	case SpeakerModel:
		return "model"
	default:
		return "unknown"
	}
}

// MarshalText implements encoding.TextMarshaler.
func (s Speaker) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// ChatTurn is one message in the conversation history.
type ChatTurn struct {
	Seq       uint64    `json:"seq"` // Position in the history (assigned by the repository)
	Speaker   Speaker   `json:"sender"`
	Text      string    `json:"text"`
	Timestamp time.Time `json:"timestamp"`
}

// NewUserTurn creates an unsequenced turn authored by the user.
func NewUserTurn(text string) *ChatTurn {
	return &ChatTurn{Speaker: SpeakerUser, Text: text, Timestamp: time.Now().UTC()}
}

// NewModelTurn creates an unsequenced turn authored by the model.
func NewModelTurn(text string) *ChatTurn {
	return &ChatTurn{Speaker: SpeakerModel, Text: text, Timestamp: time.Now().UTC()}
}
