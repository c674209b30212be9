// Package host provides the capability modules a guest imports: the value
// store itself (core) plus json, crypto, http, html and env.
//
// Every module is a bind.Host. Buffers a guest passes in stay with the guest
// (wire.Lent); data handed back is a String value the guest reads with
// core.read_string or with the module's get_data_len and get_data.
package host
