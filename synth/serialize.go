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
	"fmt"
	"strings"

	"github.com/pkoukk/tiktoken-go"
	"github.com/poiesic/distill/core"
)

// TokenCounter estimates how many prompt tokens a piece of text costs.
type TokenCounter interface {
	Count(text string) int
}

// tiktokenCounter counts tokens with the cl100k_base encoding, which is what
// the Azure OpenAI chat deployments bill against.
type tiktokenCounter struct {
	encoding *tiktoken.Tiktoken
}

// NewTokenCounter creates the production token counter.
func NewTokenCounter() (TokenCounter, error) {
	encoding, err := tiktoken.GetEncoding("cl100k_base")
	if err != nil {
		return nil, err
	}
	return &tiktokenCounter{encoding: encoding}, nil
}

func (c *tiktokenCounter) Count(text string) int {
	return len(c.encoding.Encode(text, nil, nil))
}

// SerializeThread renders a thread record as the plain-text prompt body sent
// to the model: the originating message first, then the replies numbered in
// chronological order.
//
// When budget is positive, replies are dropped from the end until the
// rendered text fits, so the earliest replies always survive truncation. The
// originating message is never truncated.
func SerializeThread(record *core.ThreadRecord, counter TokenCounter, budget int) string {
	var b strings.Builder
	b.WriteString("Question:\n")
	b.WriteString(record.Content)
	b.WriteString("\n\nResponses:\n")

	used := 0
	if budget > 0 && counter != nil {
		used = counter.Count(b.String())
	}

	for i, reply := range record.Replies {
		line := fmt.Sprintf("%d. %s\n", i+1, reply.Content)
		if budget > 0 && counter != nil {
			cost := counter.Count(line)
			// Always keep the first reply, a question with no responses
			// is not worth sending
			if i > 0 && used+cost > budget {
				break
			}
			used += cost
		}
		b.WriteString(line)
	}

	return b.String()
}
