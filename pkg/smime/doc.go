// Package smime encodes the S/MIME processing order the AS2 wire format
// mandates and binds it into the pipeline engine.
//
// A partner may compress content before or after signing it, so a
// receiver cannot know which layer the compression sits under. Inbound
// processing therefore attempts decompression twice, once right after
// decryption and again after signature verification; each attempt is a
// detect-and-passthrough no-op when the content is not recognized as
// compressed. The resulting orders are fixed, not configurable:
//
//	inbound:  decrypt -> decompress -> verify-signature -> decompress -> extract-payload
//	outbound: sign -> compress -> encrypt -> send
//
// Concrete codec behavior (crypto, MIME formatting) is supplied by
// external collaborators through the Decrypter, SignatureVerifier,
// Signer, and Encrypter interfaces; a nil collaborator makes its stage a
// passthrough so plaintext agreements run the same chains.
//
// Init performs the once-only process-wide content-type registration and
// is safe to invoke repeatedly.
package smime
