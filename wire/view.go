package wire

// Bytes is a read-only borrowed byte view used as an adapter parameter type.
// It aliases guest memory and is valid only for the duration of the call.
type Bytes []byte

// Str is a read-only borrowed UTF-8 view used as an adapter parameter type.
// It aliases guest memory and must be copied if it outlives the call.
type Str string

// MutBytes is a mutable borrowed view. Writes land directly in guest memory;
// the guest keeps ownership of the buffer.
type MutBytes []byte

// Lent is a read-only view over a buffer the guest keeps. Nothing is freed
// after the call; the host only reads.
type Lent []byte

// LentStr is Lent with UTF-8 validation.
type LentStr string
