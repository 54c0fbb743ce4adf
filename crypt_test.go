// Copyright 2024 The SheetKit Authors. All rights reserved. Use of this
// source code is governed by a BSD-style license that can be found in the
// LICENSE file.

package sheetkit

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncryptDecryptPackageAgileRoundTrip(t *testing.T) {
	plain := []byte("this is a fake OPC/ZIP payload used only to exercise the crypto codec")

	encrypted, err := encryptPackage(plain, "correct horse battery staple")
	require.NoError(t, err)
	require.NotEmpty(t, encrypted)
	assert.NotEqual(t, plain, encrypted)

	decrypted, err := decryptPackage(encrypted, "correct horse battery staple")
	require.NoError(t, err)
	assert.Equal(t, plain, decrypted)
}

func TestDecryptPackageWithWrongPasswordFailsVerifier(t *testing.T) {
	plain := []byte("another fake payload, long enough to span more than one AES block")
	encrypted, err := encryptPackage(plain, "right-password")
	require.NoError(t, err)

	_, err = decryptPackage(encrypted, "wrong-password")
	require.Error(t, err)
	assert.True(t, errors.Is(err, SentinelBadPassword))
}
