// SPDX-FileCopyrightText: 2023 The Pion community <https://pion.ly>
// SPDX-License-Identifier: MIT

package tlsclient

import (
	"bytes"
	"context"
	"crypto"
	"crypto/rand"
	"crypto/sha256"
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"net"
	"testing"
	"time"

	"github.com/pion/logging"
	"github.com/stretchr/testify/require"
	"github.com/yinpeng/tlsclient/pkg/crypto/elliptic"
	"github.com/yinpeng/tlsclient/pkg/crypto/hash"
	"github.com/yinpeng/tlsclient/pkg/crypto/prf"
	"github.com/yinpeng/tlsclient/pkg/crypto/selfsign"
	"github.com/yinpeng/tlsclient/pkg/crypto/signature"
	"github.com/yinpeng/tlsclient/pkg/protocol"
	"github.com/yinpeng/tlsclient/pkg/protocol/alert"
	"github.com/yinpeng/tlsclient/pkg/protocol/extension"
	"github.com/yinpeng/tlsclient/pkg/protocol/handshake"
	"github.com/yinpeng/tlsclient/pkg/protocol/recordlayer"
)

// peerBehavior scripts deviations of the test server.
type peerBehavior struct {
	// selectSuite overrides the suite placed in ServerHello.
	selectSuite CipherSuiteID
	// alertAfterServerHello sends a fatal handshake_failure after ServerHello.
	alertAfterServerHello bool
	// corruptFinished flips one bit of the server verify_data.
	corruptFinished bool
	// helloRequests sends a HelloRequest before each server message.
	helloRequests bool
	// coalesce packs all server hello messages into one record.
	coalesce bool
	// fragment splits every server hello message across two records.
	fragment bool
}

// peerResult is what the test server observed.
type peerResult struct {
	receivedClientKeyExchange bool
	clientHello               *handshake.MessageClientHello
	err                       error
}

// testPeer is a minimal TLS 1.2 ECDHE_ECDSA server built from the package's
// own record adapters.
type testPeer struct {
	transport *recordlayer.Conn
	suite     *CipherSuite
	cert      tls.Certificate
	behavior  peerBehavior

	transcript *digest
	reader     *handshakeReader
	writer     recordlayer.Writer
	in         *protectedReader
	out        *protectedWriter

	clientRandom [handshake.RandomLength]byte
	serverRandom [handshake.RandomLength]byte
	masterSecret []byte
	pending      []byte
	result       peerResult
}

func newTestPeer(conn net.Conn, suite *CipherSuite, cert tls.Certificate, behavior peerBehavior) *testPeer {
	transport := recordlayer.NewConn(conn)
	transcript := &digest{}
	in := &protectedReader{next: transport}
	out := &protectedWriter{next: transport}

	return &testPeer{
		transport:  transport,
		suite:      suite,
		cert:       cert,
		behavior:   behavior,
		transcript: transcript,
		reader: &handshakeReader{
			next:   &alertReader{next: in},
			digest: transcript,
			log:    logging.NewDefaultLoggerFactory().NewLogger("peer"),
		},
		writer: &digestingWriter{next: out, digest: transcript},
		in:     in,
		out:    out,
	}
}

// start runs the server in a goroutine. The returned channel yields once.
func (p *testPeer) start(ctx context.Context) <-chan peerResult {
	done := make(chan peerResult, 1)
	go func() {
		p.result.err = p.serve(ctx)
		done <- p.result
	}()

	return done
}

func (p *testPeer) record(contentType protocol.ContentType, payload []byte) *recordlayer.Record {
	return &recordlayer.Record{ContentType: contentType, Version: protocol.Version1_2, Payload: payload}
}

func (p *testPeer) sendMessage(ctx context.Context, msg handshake.Message) error {
	if p.behavior.helloRequests {
		if err := p.out.WriteRecord(ctx, p.record(protocol.ContentTypeHandshake, []byte{0, 0, 0, 0})); err != nil {
			return err
		}
	}

	raw, err := (&handshake.Handshake{Message: msg}).Marshal()
	if err != nil {
		return err
	}
	if p.behavior.coalesce {
		p.pending = append(p.pending, raw...)

		return nil
	}
	if p.behavior.fragment && len(raw) > 1 {
		if err := p.writer.WriteRecord(ctx, p.record(protocol.ContentTypeHandshake, raw[:len(raw)/2])); err != nil {
			return err
		}
		raw = raw[len(raw)/2:]
	}

	return p.writer.WriteRecord(ctx, p.record(protocol.ContentTypeHandshake, raw))
}

func (p *testPeer) flush(ctx context.Context) error {
	if len(p.pending) == 0 {
		return nil
	}
	raw := p.pending
	p.pending = nil

	return p.writer.WriteRecord(ctx, p.record(protocol.ContentTypeHandshake, raw))
}

func (p *testPeer) serve(ctx context.Context) error { //nolint:cyclop
	msg, err := p.reader.expectMessage(ctx, handshake.TypeClientHello)
	if err != nil {
		return err
	}
	clientHello, _ := msg.(*handshake.MessageClientHello)
	p.result.clientHello = clientHello
	p.clientRandom = clientHello.Random.MarshalFixed()

	suiteID := p.suite.ID
	if p.behavior.selectSuite != 0 {
		suiteID = p.behavior.selectSuite
	}
	var random handshake.Random
	if err = random.Populate(rand.Reader, time.Now()); err != nil {
		return err
	}
	p.serverRandom = random.MarshalFixed()
	id := uint16(suiteID)
	p.transcript.setHash(p.suite.Hash)
	if err = p.sendMessage(ctx, &handshake.MessageServerHello{
		Version:           protocol.Version1_2,
		Random:            random,
		SessionID:         []byte{1, 2, 3, 4},
		CipherSuiteID:     &id,
		CompressionMethod: protocol.NullCompressionMethod(),
		Extensions:        []extension.Extension{&extension.RenegotiationInfo{}},
	}); err != nil {
		return err
	}

	if p.behavior.alertAfterServerHello {
		if err = p.flush(ctx); err != nil {
			return err
		}
		payload, _ := (&alert.Alert{Level: alert.Fatal, Description: alert.HandshakeFailure}).Marshal()

		return p.out.WriteRecord(ctx, p.record(protocol.ContentTypeAlert, payload))
	}

	if err = p.sendMessage(ctx, &handshake.MessageCertificate{Certificate: p.cert.Certificate}); err != nil {
		return err
	}

	keypair, err := elliptic.GenerateKeypair(rand.Reader, elliptic.X25519)
	if err != nil {
		return err
	}
	keyExchange := &handshake.MessageServerKeyExchange{
		EllipticCurveType:  elliptic.CurveTypeNamedCurve,
		NamedCurve:         elliptic.X25519,
		PublicKey:          keypair.PublicKey,
		HashAlgorithm:      hash.SHA256,
		SignatureAlgorithm: signature.ECDSA,
	}
	signed := append(append(append([]byte{}, p.clientRandom[:]...), p.serverRandom[:]...), keyExchange.Params()...)
	hashed := sha256.Sum256(signed)
	signer, _ := p.cert.PrivateKey.(crypto.Signer)
	if keyExchange.Signature, err = signer.Sign(rand.Reader, hashed[:], crypto.SHA256); err != nil {
		return err
	}
	if err = p.sendMessage(ctx, keyExchange); err != nil {
		return err
	}
	if err = p.sendMessage(ctx, &handshake.MessageServerHelloDone{}); err != nil {
		return err
	}
	if err = p.flush(ctx); err != nil {
		return err
	}

	if msg, err = p.reader.expectMessage(ctx, handshake.TypeClientKeyExchange); err != nil {
		return err
	}
	p.result.receivedClientKeyExchange = true
	clientKeyExchange, _ := msg.(*handshake.MessageClientKeyExchange)

	preMasterSecret, err := prf.PreMasterSecret(clientKeyExchange.PublicKey, keypair.PrivateKey, elliptic.X25519)
	if err != nil {
		return err
	}
	if p.masterSecret, err = prf.MasterSecret(
		preMasterSecret, p.clientRandom[:], p.serverRandom[:], p.suite.prfHash(),
	); err != nil {
		return err
	}

	if err = p.reader.readChangeCipherSpec(ctx); err != nil {
		return err
	}
	keys, err := prf.GenerateEncryptionKeys(
		p.masterSecret, p.clientRandom[:], p.serverRandom[:],
		p.suite.macLength(), p.suite.keyLength(), p.suite.FixedIVLength, p.suite.prfHash(),
	)
	if err != nil {
		return err
	}
	decryptor, err := NewCipherDecryptor(p.suite, keys.ClientWriteKey, keys.ClientWriteIV, keys.ClientMACKey)
	if err != nil {
		return err
	}
	encryptor, err := NewCipherEncryptor(p.suite, keys.ServerWriteKey, keys.ServerWriteIV, keys.ServerMACKey, rand.Reader)
	if err != nil {
		return err
	}
	p.in.activate(decryptor)

	transcriptHash, err := p.transcript.sum()
	if err != nil {
		return err
	}
	expected, err := prf.VerifyDataClient(p.masterSecret, transcriptHash, p.suite.prfHash())
	if err != nil {
		return err
	}
	if msg, err = p.reader.expectMessage(ctx, handshake.TypeFinished); err != nil {
		return err
	}
	if finished, _ := msg.(*handshake.MessageFinished); !bytes.Equal(expected, finished.VerifyData) {
		return fmt.Errorf("client verify_data mismatch") //nolint:err113
	}

	ccs, _ := protocol.ChangeCipherSpec{}.Marshal()
	if err = p.writer.WriteRecord(ctx, p.record(protocol.ContentTypeChangeCipherSpec, ccs)); err != nil {
		return err
	}
	p.out.activate(encryptor)

	if transcriptHash, err = p.transcript.sum(); err != nil {
		return err
	}
	verifyData, err := prf.VerifyDataServer(p.masterSecret, transcriptHash, p.suite.prfHash())
	if err != nil {
		return err
	}
	if p.behavior.corruptFinished {
		verifyData[0] ^= 0x01
	}
	if err = p.sendMessage(ctx, &handshake.MessageFinished{VerifyData: verifyData}); err != nil {
		return err
	}
	if err = p.flush(ctx); err != nil {
		return err
	}

	return p.echo(ctx)
}

// echo returns application data until the client sends close_notify.
func (p *testPeer) echo(ctx context.Context) error {
	for {
		record, err := p.reader.next.ReadRecord(ctx)
		if err != nil {
			return err
		}
		if err := p.out.WriteRecord(ctx, record); err != nil {
			return err
		}
	}
}

// testCertificate returns an ECDSA certificate for localhost and a pool trusting it.
func testCertificate(t *testing.T) (tls.Certificate, *x509.CertPool) {
	t.Helper()

	cert, err := selfsign.GenerateSelfSignedWithDNS("localhost", "localhost")
	require.NoError(t, err)

	pool := x509.NewCertPool()
	pool.AddCert(cert.Leaf)

	return cert, pool
}
