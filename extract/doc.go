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


// Package extract implements the extraction pipeline: raw channel threads
// in, cleaned JSON interchange file out.
//
// The extractor preserves channel order, keeps threads with zero replies,
// and skips (never fails on) threads whose content cannot be cleaned. Given
// the same input threads it produces byte-identical output, so repeated runs
// against an unchanged channel are idempotent.
package extract
