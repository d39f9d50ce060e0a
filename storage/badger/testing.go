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


package badger

import "github.com/poiesic/docchat/storage"

// memoryTurnRepository owns its backend and closes both together.
type memoryTurnRepository struct {
	*TurnRepository
}

func (m *memoryTurnRepository) Close() error {
	seqErr := m.TurnRepository.Close()
	if err := m.backend.Close(); err != nil {
		return err
	}
	return seqErr
}

// NewMemoryTurnRepository opens an in-memory backend and a turn repository on it.
// Closing the repository also closes the backend.
func NewMemoryTurnRepository() (storage.TurnRepository, error) {
	backend, err := OpenMemoryBackend()
	if err != nil {
		return nil, err
	}

	repo, err := NewTurnRepository(backend)
	if err != nil {
		backend.Close()
		return nil, err
	}

	return &memoryTurnRepository{TurnRepository: repo}, nil
}
