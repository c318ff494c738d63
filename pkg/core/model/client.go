// Copyright (c) 2024 Behnam Momeni
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

// Package model defines the inner most layer of the Clean Architecture
// containing the business-level models, also called entities or domain.
// This layer may not depend on outter layers, while all other layers
// may depend on it.
// By the way, it is acceptable to annotate structs in this package with
// multiple frameworks dependent tags (e.g., as required by ORM
// libraries) since adding more tags does not complicate definition of
// a struct, but can prevent unnecessary structs duplication.
package model

// Client models one row of the clients listing, that is, a client
// joined with one of its phone numbers.
// A client with several phones is reported as several rows and a client
// without any phone is reported once with a nil Phone.
// The server-assigned client identifier is not included because it is
// not used by the edit operations which identify clients by name.
// For the persisted counterparts of this model, see the unexported
// gClient and gPhone structs in the
// pkg/adapter/db/postgres/clientsrp/query.go file.
type Client struct {
	Name     string  `json:"name"`      // first name, used as lookup key
	LastName string  `json:"last_name"` // last name
	Address  string  `json:"address"`   // postal address
	Phone    *string `json:"phone"`     // phone number or nil if absent
}

// HasPhone reports if this row carries a phone number.
func (c Client) HasPhone() bool {
	return c.Phone != nil
}

// PhoneOr returns the phone number of this row or the given def value
// if the row has no phone.
func (c Client) PhoneOr(def string) string {
	if c.Phone == nil {
		return def
	}
	return *c.Phone
}

// NewClient describes the fields which are required for insertion of
// a new client. All fields must be non-empty.
type NewClient struct {
	Name     string `validate:"required"`
	LastName string `validate:"required"`
	Address  string `validate:"required"`
}

// ClientUpdate describes an update of the client which is identified
// by Name. Only the LastName and Address fields may be changed since
// the name is used as the lookup key.
type ClientUpdate struct {
	Name     string `validate:"required"`
	LastName string
	Address  string
}

// NewPhone describes a phone number which should be attached to the
// client which is identified by ClientName.
type NewPhone struct {
	ClientName string `validate:"required"`
	Number     string `validate:"required"`
}
