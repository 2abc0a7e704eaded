// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Pavel Kosenkov

package models

import (
	"encoding/json"
	"time"
)

// Document is the persistence unit of the store layer: an opaque JSON body
// keyed by collection name and document id. The store never inspects the
// body and has no knowledge of which fields inside it are ciphered.
type Document struct {
	Collection string          `json:"collection"`
	DocumentID string          `json:"document_id"`
	Body       json.RawMessage `json:"body"`
	CreatedAt  time.Time       `json:"created_at"`
	UpdatedAt  time.Time       `json:"updated_at"`
}

// NewDocument marshals record into an opaque document body. The store layer
// calls this immediately after the codec has encoded the record.
func NewDocument(collection, documentID string, record Record) (Document, error) {
	body, err := json.Marshal(record)
	if err != nil {
		return Document{}, err
	}
	return Document{
		Collection: collection,
		DocumentID: documentID,
		Body:       body,
	}, nil
}

// Record unmarshals the opaque body back into a Record for decoding.
func (d Document) Record() (Record, error) {
	var record Record
	if err := json.Unmarshal(d.Body, &record); err != nil {
		return nil, err
	}
	return record, nil
}
