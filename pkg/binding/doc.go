// Package binding implements protocol binding selection for outbound
// messages. A P-Mode's MEPBinding attribute names the protocol variant a
// trading-partner agreement uses; this package recognizes the host
// gateway's default push binding and the AS2 binding contributed by this
// extension, and routes each message to the flow set registered for its
// binding.
//
// The set of bindings is closed. A P-Mode carrying an unrecognized token
// makes its messages non-sendable; it is never silently defaulted.
package binding
