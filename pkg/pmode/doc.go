// Package pmode implements Processing Mode configuration for the AS2
// extension. A P-Mode is a trading-partner processing agreement record:
// it parameterizes how messages exchanged under that agreement are
// secured, compressed, and routed, and carries the MEP binding attribute
// the binding selector dispatches on.
//
// P-Modes are operator-supplied XML documents loaded once at startup; see
// LoadFile and LoadDir. The Manager provides concurrent read access for
// the dispatch workers.
package pmode
