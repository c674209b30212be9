//go:build wasip1

package guest

import "unsafe"

//go:wasmimport core copy
func coreCopy(h int32) int32

//go:wasmimport core destroy
func coreDestroy(h int32)

//go:wasmimport core kind_of
func coreKindOf(h int32) int32

//go:wasmimport core create_array
func coreCreateArray() int32

//go:wasmimport core create_object
func coreCreateObject() int32

//go:wasmimport core create_string
func coreCreateString(ptr unsafe.Pointer, n uint32) int32

//go:wasmimport core create_bool
func coreCreateBool(b int32) int32

//go:wasmimport core create_int
func coreCreateInt(i int64) int32

//go:wasmimport core create_float
func coreCreateFloat(f float64) int32

//go:wasmimport core create_error
func coreCreateError() int32

//go:wasmimport core string_len
func coreStringLen(h int32) int32

//go:wasmimport core read_string
func coreReadString(h int32, ptr unsafe.Pointer, n uint32)

//go:wasmimport core read_int
func coreReadInt(h int32) int64

//go:wasmimport core read_float
func coreReadFloat(h int32) float64

//go:wasmimport core read_bool
func coreReadBool(h int32) int32

//go:wasmimport core object_len
func coreObjectLen(h int32) int32

//go:wasmimport core object_get
func coreObjectGet(h int32, key unsafe.Pointer, n uint32) int32

//go:wasmimport core object_set
func coreObjectSet(h int32, key unsafe.Pointer, n uint32, v int32)

//go:wasmimport core object_remove
func coreObjectRemove(h int32, key unsafe.Pointer, n uint32)

//go:wasmimport core object_keys
func coreObjectKeys(h int32) int32

//go:wasmimport core object_values
func coreObjectValues(h int32) int32

//go:wasmimport core array_len
func coreArrayLen(h int32) int32

//go:wasmimport core array_get
func coreArrayGet(h int32, i int32) int32

//go:wasmimport core array_set
func coreArraySet(h int32, i int32, v int32)

//go:wasmimport core array_append
func coreArrayAppend(h int32, v int32)

//go:wasmimport core array_remove
func coreArrayRemove(h int32, i int32)

//go:wasmimport json parse
func jsonParse(ptr unsafe.Pointer, n uint32) int32

//go:wasmimport json stringify
func jsonStringify(h int32) int32

//go:wasmimport crypto get_data_len
func cryptoGetDataLen(h int32) int32

//go:wasmimport crypto get_data
func cryptoGetData(h int32, ptr unsafe.Pointer, n uint32)

//go:wasmimport crypto base64_parse
func cryptoBase64Parse(ptr unsafe.Pointer, n uint32) int32

//go:wasmimport crypto base64_string
func cryptoBase64String(ptr unsafe.Pointer, n uint32) int32

//go:wasmimport crypto utf8_parse
func cryptoUtf8Parse(ptr unsafe.Pointer, n uint32) int32

//go:wasmimport crypto aes_encrypt
func cryptoAESEncrypt(msg unsafe.Pointer, msgLen uint32, key unsafe.Pointer, keyLen uint32, iv unsafe.Pointer, ivLen uint32) int32

//go:wasmimport crypto aes_decrypt
func cryptoAESDecrypt(msg unsafe.Pointer, msgLen uint32, key unsafe.Pointer, keyLen uint32, iv unsafe.Pointer, ivLen uint32) int32

//go:wasmimport crypto md5_hash
func cryptoMD5Hash(ptr unsafe.Pointer, n uint32) int32

//go:wasmimport crypto pbkdf2
func cryptoPBKDF2(pw unsafe.Pointer, pwLen uint32, salt unsafe.Pointer, saltLen uint32, iterations, keyLen, digest int32) int32

//go:wasmimport http create
func httpCreate(method int32) int32

//go:wasmimport http set_url
func httpSetURL(h int32, ptr unsafe.Pointer, n uint32)

//go:wasmimport http set_header
func httpSetHeader(h int32, key unsafe.Pointer, keyLen uint32, val unsafe.Pointer, valLen uint32)

//go:wasmimport http set_body
func httpSetBody(h int32, ptr unsafe.Pointer, n uint32)

//go:wasmimport http set_method
func httpSetMethod(h int32, method int32)

//go:wasmimport http get_method
func httpGetMethod(h int32) int32

//go:wasmimport http get_url
func httpGetURL(h int32) int32

//go:wasmimport http get_header
func httpGetHeader(h int32, key unsafe.Pointer, n uint32) int32

//go:wasmimport http send
func httpSend(h int32)

//go:wasmimport http get_status_code
func httpGetStatusCode(h int32) int32

//go:wasmimport http get_data_len
func httpGetDataLen(h int32) int32

//go:wasmimport http get_data
func httpGetData(h int32, ptr unsafe.Pointer, n uint32)

//go:wasmimport http close
func httpClose(h int32)

//go:wasmimport html parse
func htmlParse(ptr unsafe.Pointer, n uint32) int32

//go:wasmimport html parse_with_uri
func htmlParseWithURI(ptr unsafe.Pointer, n uint32, uri unsafe.Pointer, uriLen uint32) int32

//go:wasmimport html select
func htmlSelect(h int32, sel unsafe.Pointer, n uint32) int32

//go:wasmimport html attr
func htmlAttr(h int32, name unsafe.Pointer, n uint32) int32

//go:wasmimport html text
func htmlText(h int32) int32

//go:wasmimport html html
func htmlHTML(h int32) int32

//go:wasmimport html first
func htmlFirst(h int32) int32

//go:wasmimport html last
func htmlLast(h int32) int32

//go:wasmimport html array
func htmlArray(h int32) int32

//go:wasmimport html abs_url
func htmlAbsURL(h int32, attr unsafe.Pointer, n uint32) int32

//go:wasmimport env print
func envPrint(ptr unsafe.Pointer, n uint32)

//go:wasmimport env abort
func envAbort(msg unsafe.Pointer, msgLen uint32, file unsafe.Pointer, fileLen uint32, line, col int32)
