// SPDX-FileCopyrightText: 2023 The Pion community <https://pion.ly>
// SPDX-License-Identifier: MIT

package extension

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/yinpeng/tlsclient/pkg/crypto/hash"
	"github.com/yinpeng/tlsclient/pkg/crypto/signature"
	"github.com/yinpeng/tlsclient/pkg/crypto/signaturehash"
)

func TestExtensionSupportedSignatureAlgorithms(t *testing.T) {
	rawExtensionSupportedSignatureAlgorithms := []byte{
		0x00, 0x0d,
		0x00, 0x08,
		0x00, 0x06,
		0x04, 0x03,
		0x05, 0x03,
		0x06, 0x03,
	}
	parsedExtensionSupportedSignatureAlgorithms := &SupportedSignatureAlgorithms{
		SignatureHashAlgorithms: []signaturehash.Algorithm{
			{Hash: hash.SHA256, Signature: signature.ECDSA},
			{Hash: hash.SHA384, Signature: signature.ECDSA},
			{Hash: hash.SHA512, Signature: signature.ECDSA},
		},
	}

	raw, err := parsedExtensionSupportedSignatureAlgorithms.Marshal()
	assert.NoError(t, err)
	assert.Equal(t, rawExtensionSupportedSignatureAlgorithms, raw)

	roundtrip := &SupportedSignatureAlgorithms{}
	assert.NoError(t, roundtrip.Unmarshal(raw))
	assert.Equal(t, parsedExtensionSupportedSignatureAlgorithms, roundtrip)
}

func TestExtensionSupportedSignatureAlgorithmsSkipsUnknown(t *testing.T) {
	raw := []byte{
		0x00, 0x0d,
		0x00, 0x06,
		0x00, 0x04,
		0x08, 0x04, // rsa_pss_rsae_sha256
		0x04, 0x01,
	}

	parsed := &SupportedSignatureAlgorithms{}
	assert.NoError(t, parsed.Unmarshal(raw))
	assert.Equal(t, []signaturehash.Algorithm{{Hash: hash.SHA256, Signature: signature.RSA}}, parsed.SignatureHashAlgorithms)
}
