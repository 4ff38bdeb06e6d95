// SPDX-FileCopyrightText: 2023 The Pion community <https://pion.ly>
// SPDX-License-Identifier: MIT

package ciphersuite

import (
	"crypto/aes"
	"crypto/cipher"
	"testing"

	"github.com/stretchr/testify/require"
)

func newTestCBCEncrypter(t *testing.T, key, iv []byte) cipher.BlockMode {
	t.Helper()

	block, err := aes.NewCipher(key)
	require.NoError(t, err)

	return cipher.NewCBCEncrypter(block, iv)
}
