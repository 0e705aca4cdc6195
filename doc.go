/*
Package hb2bas2 is an AS2 messaging extension for the Holodeck B2B
gateway: EDI document exchange over HTTP with S/MIME security.

The extension contributes an AS2 protocol binding to the gateway's
P-Mode parameter space. Messages whose trading-partner agreement carries
the AS2 MEP binding token are routed through this extension's processing
pipelines; everything else stays with the host gateway.

# Architecture

Processing is organized as four directional pipelines (normal and fault,
inbound and outbound) built from declarative stage descriptors. The
pipeline package resolves descriptors into deterministic execution plans
and runs them; the smime package contributes the AS2 stage set (signing,
compression, encryption, and their inverses) and the fixed ordering the
S/MIME layering mandates. The binding package routes each message to the
flow set of its P-Mode's binding.

Outbound delivery runs in the dispatch worker pool, which polls the
message store for dispatchable messages and claims each one through an
atomic state transition, so that concurrent workers, and concurrent
gateway processes sharing one store, never push the same message twice.
Inbound entities arrive through the transport package's HTTPS endpoint
and are handed to the receiver, which answers with a message disposition
notification.

Message state lives behind the storage interface, with an in-memory
implementation for tests and single-node use and a MongoDB backend for
shared deployments. P-Modes are plain XML documents loaded at startup;
runtime configuration is YAML.

See examples/basic for a complete wiring of the pieces.
*/
package hb2bas2
