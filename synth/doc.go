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


// Package synth implements the synthesis pipeline: thread records in, one
// question/answer pair per thread out.
//
// Threads are processed concurrently under a shared rate gate, but output
// files are always numbered in the records' original order, so two runs over
// the same interchange file produce the same file names with the same
// contents. Threads the model cannot make a pair from are skipped and
// counted, never fatal.
package synth
