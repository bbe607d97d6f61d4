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


// Package ai provides the abstraction for the generative completion service
// used to synthesize question/answer pairs from conversation threads.
//
// The package defines the Synthesizer interface, its shared configuration,
// and the data-quality error taxonomy. Pipelines depend on the interface
// rather than a concrete implementation.
//
// # Implementation Packages
//
//   - ai/openai: production implementation against Azure OpenAI
//   - ai/mock: test doubles for unit testing without external dependencies
//
// Public constructors (openai.NewSynthesizer) return the interface type to
// enforce abstraction; mock constructors return concrete types so tests can
// inject behavior and make assertions.
//
// # Error Taxonomy
//
// A Synthesizer distinguishes data-quality conditions from transport
// failures. ErrNoPair and ErrMalformedOutput mean the thread should be
// skipped and the run should continue; anything else is a candidate for the
// shared retry policy. Use IsDataQuality to classify.
package ai
