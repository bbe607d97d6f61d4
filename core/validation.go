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
	"fmt"
	"time"
)

// ValidateThreadRecord validates a ThreadRecord according to domain rules.
//
// Validation rules:
//   - ID must not be empty
//   - Content must not be empty
//   - CreatedAt must not be in the future
//
// NOT validated:
//   - Replies (a thread with zero replies is valid; the extractor never
//     drops a thread for lacking replies)
//   - Author (some upstream messages carry no resolvable author)
func ValidateThreadRecord(record *ThreadRecord) error {
	if record == nil {
		return fmt.Errorf("%w: record is nil", ErrInvalidThreadRecord)
	}

	if record.ID == "" {
		return fmt.Errorf("%w: %w", ErrInvalidThreadRecord, ErrEmptyMessageID)
	}

	if record.Content == "" {
		return fmt.Errorf("%w: %w", ErrInvalidThreadRecord, ErrEmptyContent)
	}

	if !IsValidTimestamp(record.CreatedAt) {
		return fmt.Errorf("%w: %w", ErrInvalidThreadRecord, ErrInvalidTimestamp)
	}

	return nil
}

// ValidateQAPair validates a QAPair according to domain rules.
//
// Validation rules:
//   - Question must not be empty
//   - Answer must not be empty
//
// Semantic correctness of the pair is not (and cannot be) validated; any
// model output producing non-empty fields is accepted.
func ValidateQAPair(pair *QAPair) error {
	if pair == nil {
		return fmt.Errorf("%w: pair is nil", ErrInvalidQAPair)
	}

	if pair.Question == "" {
		return fmt.Errorf("%w: %w", ErrInvalidQAPair, ErrEmptyQuestion)
	}

	if pair.Answer == "" {
		return fmt.Errorf("%w: %w", ErrInvalidQAPair, ErrEmptyAnswer)
	}

	return nil
}

// IsValidTimestamp checks if a timestamp is valid (not in the future).
func IsValidTimestamp(ts time.Time) bool {
	return !ts.After(time.Now())
}
