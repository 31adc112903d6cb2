// Package xapi implements the xAPI wire protocol.
// It is stateless: sessions, transports and pacing live in pkg/session.
//
// The package includes:
//   - EncodeCommand: the command envelope encoder
//   - ReadResponse: envelope decoding, correlation tag check and error classification
//   - Decode: shape-directed decoding of the response payload into typed records
//   - NormalizeRates: conversion of raw chart candles to absolute prices
//
// Example usage:
//
//	data, err := xapi.EncodeCommand(core.CmdGetSymbol, "app:1", core.SymbolRequest{Symbol: "EURUSD"}, false)
//	// send data, receive reply
//	resp, err := xapi.ReadResponse(reply, "app:1")
//	symbol, err := xapi.Decode[core.Symbol](resp, xapi.ShapeRecord, xapi.KeyReturnData)
package xapi
