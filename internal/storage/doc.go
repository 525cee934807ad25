/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package storage persists templates.
// Template files are JSON element lists written transactionally with timestamped backups next to them.
// A per-template SQLite journal (<dir>/.pdd/journal.sqlite) keeps msgpack snapshots of committed documents for recovery.
// The catalog stores named templates in SQLite or Postgres so several installations can share them.
package storage
