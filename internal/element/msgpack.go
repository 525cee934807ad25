/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package element

import (
	"fmt"

	"github.com/vmihailenco/msgpack/v5"
)

// EncodeMsgpack writes doc as a msgpack array of records.
func EncodeMsgpack(doc Document) ([]byte, error) {
	recs := make([]Record, len(doc))
	for i, e := range doc {
		recs[i] = e.Record()
	}
	return msgpack.Marshal(recs)
}

// DecodeMsgpack reads a msgpack record array. Seq follows the array order so
// that a decoded snapshot keeps its tie-breaks.
func DecodeMsgpack(data []byte) (Document, error) {
	var recs []Record
	if err := msgpack.Unmarshal(data, &recs); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	doc := make(Document, 0, len(recs))
	for i, r := range recs {
		e, err := FromRecord(r)
		if err != nil {
			return nil, err
		}
		e.Seq = uint64(i + 1)
		doc = append(doc, e)
	}
	return doc, nil
}
