// Package message defines the message model shared by the AS2 extension:
// message units, their processing states, and the transport envelope that
// travels with a message through the processing pipelines.
//
// A MessageUnit is the persisted view of one leg of a message exchange.
// Its State field is only ever advanced through the storage layer's
// compare-and-set operation; code in this module never reassigns State
// directly after the unit has been stored.
package message
