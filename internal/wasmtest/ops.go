package wasmtest

import "bytes"

// Opcodes used by test guests.
const (
	opUnreachable byte = 0x00
	opDrop        byte = 0x1A
	opEnd         byte = 0x0B
	opCall        byte = 0x10
	opLocalGet    byte = 0x20
	opLocalSet    byte = 0x21
	opLocalTee    byte = 0x22
	opGlobalGet   byte = 0x23
	opGlobalSet   byte = 0x24
	opI32Const    byte = 0x41
	opI64Const    byte = 0x42
	opI32Add      byte = 0x6A
)

// Code concatenates instructions into a function body.
func Code(ins ...[]byte) []byte {
	return bytes.Join(ins, nil)
}

func Unreachable() []byte { return []byte{opUnreachable} }

func Drop() []byte { return []byte{opDrop} }

func I32Add() []byte { return []byte{opI32Add} }

func I32Const(v int32) []byte {
	var b bytes.Buffer
	b.WriteByte(opI32Const)
	writeS32(&b, v)
	return b.Bytes()
}

func I64Const(v int64) []byte {
	var b bytes.Buffer
	b.WriteByte(opI64Const)
	writeS64(&b, v)
	return b.Bytes()
}

func Call(fn uint32) []byte { return indexed(opCall, fn) }

func LocalGet(i uint32) []byte { return indexed(opLocalGet, i) }

func LocalSet(i uint32) []byte { return indexed(opLocalSet, i) }

func LocalTee(i uint32) []byte { return indexed(opLocalTee, i) }

func GlobalGet(i uint32) []byte { return indexed(opGlobalGet, i) }

func GlobalSet(i uint32) []byte { return indexed(opGlobalSet, i) }

func indexed(op byte, i uint32) []byte {
	var b bytes.Buffer
	b.WriteByte(op)
	writeU32(&b, i)
	return b.Bytes()
}
