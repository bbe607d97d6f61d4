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


package synth

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/poiesic/distill/core"
)

// PairWriter persists one synthesized pair under its output sequence index.
type PairWriter interface {
	Write(index int, pair *core.QAPair) error
}

// JSONWriter writes each pair as an indented JSON file named qna_<index>.json.
type JSONWriter struct {
	dir string
}

// NewJSONWriter creates a writer targeting dir, creating it if needed.
func NewJSONWriter(dir string) (*JSONWriter, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return &JSONWriter{dir: dir}, nil
}

func (w *JSONWriter) Write(index int, pair *core.QAPair) error {
	data, err := json.MarshalIndent(pair, "", "    ")
	if err != nil {
		return err
	}
	data = append(data, '\n')
	return os.WriteFile(filepath.Join(w.dir, fmt.Sprintf("qna_%d.json", index)), data, 0o644)
}

// DocWriter writes each pair as a Markdown document named qna_<index>.md,
// with the question as the heading and the answer as the body.
type DocWriter struct {
	dir string
}

// NewDocWriter creates a writer targeting dir, creating it if needed.
func NewDocWriter(dir string) (*DocWriter, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return &DocWriter{dir: dir}, nil
}

func (w *DocWriter) Write(index int, pair *core.QAPair) error {
	doc := fmt.Sprintf("# %s\n\n%s\n", pair.Question, pair.Answer)
	return os.WriteFile(filepath.Join(w.dir, fmt.Sprintf("qna_%d.md", index)), []byte(doc), 0o644)
}
