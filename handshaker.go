// SPDX-FileCopyrightText: 2023 The Pion community <https://pion.ly>
// SPDX-License-Identifier: MIT

package tlsclient

import (
	"context"
	"crypto/subtle"
	"crypto/x509"
	"fmt"

	"github.com/pion/logging"
	"github.com/yinpeng/tlsclient/internal/memzero"
	"github.com/yinpeng/tlsclient/pkg/crypto/elliptic"
	"github.com/yinpeng/tlsclient/pkg/crypto/prf"
	"github.com/yinpeng/tlsclient/pkg/protocol"
	"github.com/yinpeng/tlsclient/pkg/protocol/extension"
	"github.com/yinpeng/tlsclient/pkg/protocol/handshake"
	"github.com/yinpeng/tlsclient/pkg/protocol/recordlayer"
)

// [RFC5246 Section-7.3], client side of a full handshake
//
//	Client                                   Server
//
//	ClientHello                  -------->
//	                                         ServerHello
//	                                         Certificate
//	                                         ServerKeyExchange*
//	                                         CertificateRequest*
//	                             <--------   ServerHelloDone
//	ClientKeyExchange
//	[ChangeCipherSpec]
//	Finished                     -------->
//	                                         [ChangeCipherSpec]
//	                             <--------   Finished
//	Application Data             <------->   Application Data

type handshakeState uint8

const (
	stateInit handshakeState = iota
	stateClientHelloSent
	stateServerHelloReceived
	stateKeyMaterialReceived
	stateClientKeyExchangeSent
	stateChangeCipherSpecSent
	stateFinishedSent
	stateChangeCipherSpecReceived
	stateEstablished
	stateFailed
)

func (s handshakeState) String() string {
	switch s {
	case stateInit:
		return "Init"
	case stateClientHelloSent:
		return "ClientHelloSent"
	case stateServerHelloReceived:
		return "ServerHelloReceived"
	case stateKeyMaterialReceived:
		return "KeyMaterialReceived"
	case stateClientKeyExchangeSent:
		return "ClientKeyExchangeSent"
	case stateChangeCipherSpecSent:
		return "ChangeCipherSpecSent"
	case stateFinishedSent:
		return "FinishedSent"
	case stateChangeCipherSpecReceived:
		return "ChangeCipherSpecReceived"
	case stateEstablished:
		return "Established"
	case stateFailed:
		return "Failed"
	default:
		return "Unknown"
	}
}

const keyLogLabelTLS12 = "CLIENT_RANDOM"

// handshaker runs one client handshake. It is single use.
type handshaker struct {
	cfg   *handshakeConfig
	log   logging.LeveledLogger
	state handshakeState

	transcript *digest
	reader     *handshakeReader
	writer     recordlayer.Writer
	in         *protectedReader
	out        *protectedWriter

	// secrets holds every buffer that must not outlive the handshake.
	secrets memzero.Arena

	clientRandom [handshake.RandomLength]byte
	serverRandom [handshake.RandomLength]byte
	sessionID    []byte
	offered      map[extension.TypeValue]bool

	cipherSuite      *CipherSuite
	agreement        keyAgreement
	details          exchangeDetails
	peerCertificates []*x509.Certificate
	masterSecret     []byte

	encryptor *CipherEncryptor
	decryptor *CipherDecryptor
}

// newHandshaker builds the record stack of a handshake over transport.
func newHandshaker(cfg *handshakeConfig, transport recordlayer.ReadWriter) *handshaker {
	transcript := &digest{}
	in := &protectedReader{next: transport}
	out := &protectedWriter{next: transport}

	return &handshaker{
		cfg:        cfg,
		log:        cfg.log,
		transcript: transcript,
		reader: &handshakeReader{
			next:   &alertReader{next: in},
			digest: transcript,
			log:    cfg.log,
		},
		writer: &digestingWriter{next: out, digest: transcript},
		in:     in,
		out:    out,
	}
}

func (h *handshaker) transition(to handshakeState) error {
	from := h.state
	valid := to == from+1 && from < stateEstablished
	if to == stateFailed {
		valid = from != stateEstablished && from != stateFailed
	}
	if !valid {
		return fmt.Errorf("%w: %s -> %s", errInvalidFSMTransition, from, to)
	}

	h.log.Tracef("[handshake] %s -> %s", from, to)
	h.state = to

	return nil
}

// run drives the handshake to Established. On failure every derived key is
// zeroed and the transport is left to the caller.
func (h *handshaker) run(ctx context.Context) (*State, error) {
	defer h.secrets.Wipe()

	steps := []func(context.Context) error{
		h.sendClientHello,
		h.receiveServerHello,
		h.receiveServerKeyMaterial,
		h.sendClientKeyExchange,
		h.sendChangeCipherSpec,
		h.sendFinished,
		h.receiveChangeCipherSpec,
		h.receiveFinished,
	}
	for _, step := range steps {
		if err := step(ctx); err != nil {
			h.fail(err)

			return nil, err
		}
	}
	h.transcript.reset()

	return &State{
		Version:          protocol.Version1_2,
		CipherSuite:      h.cipherSuite,
		PeerCertificates: h.peerCertificates,
		ServerName:       h.cfg.serverName,
		SessionID:        h.sessionID,
	}, nil
}

func (h *handshaker) fail(err error) {
	h.log.Debugf("handshake failed in state %s: %v", h.state, err)
	_ = h.transition(stateFailed)

	h.transcript.reset()
	if h.encryptor != nil {
		h.encryptor.Close()
		h.out.activate(nil)
	}
	if h.decryptor != nil {
		h.decryptor.Close()
		h.in.activate(nil)
	}
}

// writeMessage sends msg in as many records as it needs.
func (h *handshaker) writeMessage(ctx context.Context, msg handshake.Message) error {
	raw, err := (&handshake.Handshake{Message: msg}).Marshal()
	if err != nil {
		return err
	}

	for len(raw) > 0 {
		n := min(len(raw), recordlayer.MaxPlaintextLength)
		record := &recordlayer.Record{
			ContentType: protocol.ContentTypeHandshake,
			Version:     protocol.Version1_2,
			Payload:     raw[:n],
		}
		if err := h.writer.WriteRecord(ctx, record); err != nil {
			return err
		}
		raw = raw[n:]
	}

	return nil
}

func (h *handshaker) offersECDHE() bool {
	for _, suite := range h.cfg.cipherSuites {
		if suite.KeyExchange == KeyExchangeECDHE {
			return true
		}
	}

	return false
}

func (h *handshaker) clientHelloExtensions() []extension.Extension {
	extensions := []extension.Extension{}
	if h.cfg.sendServerName {
		extensions = append(extensions, &extension.ServerName{ServerName: h.cfg.serverName})
	}
	if h.offersECDHE() {
		extensions = append(extensions,
			&extension.SupportedEllipticCurves{EllipticCurves: h.cfg.ellipticCurves},
			&extension.SupportedPointFormats{
				PointFormats: []elliptic.CurvePointFormat{elliptic.CurvePointFormatUncompressed},
			},
		)
	}
	extensions = append(extensions,
		&extension.SupportedSignatureAlgorithms{SignatureHashAlgorithms: h.cfg.signatureSchemes},
		&extension.RenegotiationInfo{},
	)

	return extensions
}

func (h *handshaker) sendClientHello(ctx context.Context) error {
	var random handshake.Random
	if err := random.Populate(h.cfg.rand, h.cfg.now()); err != nil {
		return err
	}
	h.clientRandom = random.MarshalFixed()

	extensions := h.clientHelloExtensions()
	h.offered = make(map[extension.TypeValue]bool, len(extensions))
	for _, ext := range extensions {
		h.offered[ext.TypeValue()] = true
	}

	hello := &handshake.MessageClientHello{
		Version:            protocol.Version1_2,
		Random:             random,
		CipherSuiteIDs:     cipherSuiteIDs(h.cfg.cipherSuites),
		CompressionMethods: []*protocol.CompressionMethod{protocol.NullCompressionMethod()},
		Extensions:         extensions,
	}
	if err := h.writeMessage(ctx, hello); err != nil {
		return err
	}

	return h.transition(stateClientHelloSent)
}

func (h *handshaker) receiveServerHello(ctx context.Context) error {
	msg, err := h.reader.expectMessage(ctx, handshake.TypeServerHello)
	if err != nil {
		return err
	}
	serverHello, ok := msg.(*handshake.MessageServerHello)
	if !ok {
		return fmt.Errorf("%w: malformed ServerHello", ErrProtocol)
	}

	if !serverHello.Version.Equal(protocol.Version1_2) {
		return fmt.Errorf("%w: server selected version %s", ErrNegotiation, serverHello.Version)
	}
	if serverHello.CompressionMethod == nil ||
		serverHello.CompressionMethod.ID != protocol.NullCompressionMethod().ID {
		return fmt.Errorf("%w: server selected a compression method", ErrNegotiation)
	}
	if serverHello.CipherSuiteID == nil {
		return fmt.Errorf("%w: ServerHello without cipher suite", ErrProtocol)
	}

	id := CipherSuiteID(*serverHello.CipherSuiteID)
	for _, suite := range h.cfg.cipherSuites {
		if suite.ID == id {
			h.cipherSuite = suite

			break
		}
	}
	if h.cipherSuite == nil {
		return fmt.Errorf("%w: server selected %s which was not offered", ErrNegotiation, id)
	}

	for _, ext := range serverHello.Extensions {
		if !h.offered[ext.TypeValue()] {
			return fmt.Errorf("%w: unsolicited extension %d in ServerHello", ErrProtocol, ext.TypeValue())
		}
		if reneg, ok := ext.(*extension.RenegotiationInfo); ok && len(reneg.RenegotiatedConnection) != 0 {
			return fmt.Errorf("%w: initial handshake with renegotiated_connection set", ErrProtocol)
		}
	}

	h.agreement, err = newKeyAgreement(h.cipherSuite.KeyExchange)
	if err != nil {
		return err
	}

	h.serverRandom = serverHello.Random.MarshalFixed()
	h.sessionID = append([]byte{}, serverHello.SessionID...)
	h.transcript.setHash(h.cipherSuite.Hash)
	h.log.Debugf("negotiated %s", h.cipherSuite)

	return h.transition(stateServerHelloReceived)
}

func (h *handshaker) receiveServerKeyMaterial(ctx context.Context) error {
	msg, err := h.reader.expectMessage(ctx, handshake.TypeCertificate)
	if err != nil {
		return err
	}
	certificate, ok := msg.(*handshake.MessageCertificate)
	if !ok {
		return fmt.Errorf("%w: malformed Certificate", ErrProtocol)
	}
	if err := h.verifyServerCertificate(certificate.Certificate); err != nil {
		return err
	}

	next, err := h.reader.readMessage(ctx)
	if err != nil {
		return err
	}

	switch {
	case next.Header.Type == handshake.TypeServerKeyExchange:
		keyExchange, ok := next.Message.(*handshake.MessageServerKeyExchange)
		if !ok {
			return fmt.Errorf("%w: malformed ServerKeyExchange", ErrProtocol)
		}
		if err := h.agreement.processServerKeyExchange(
			h.cfg, &h.details, h.clientRandom[:], h.serverRandom[:], keyExchange,
		); err != nil {
			return err
		}
		if next, err = h.reader.readMessage(ctx); err != nil {
			return err
		}
	case h.agreement.requiresServerKeyExchange():
		return fmt.Errorf("%w: expected ServerKeyExchange, got %s", ErrProtocol, next.Header.Type)
	}

	if next.Header.Type == handshake.TypeCertificateRequest {
		h.details.certificateRequested = true
		if next, err = h.reader.readMessage(ctx); err != nil {
			return err
		}
	}

	if next.Header.Type != handshake.TypeServerHelloDone {
		return fmt.Errorf("%w: expected ServerHelloDone, got %s", ErrProtocol, next.Header.Type)
	}

	return h.transition(stateKeyMaterialReceived)
}

func (h *handshaker) verifyServerCertificate(rawCertificates [][]byte) error {
	chain, err := loadCerts(rawCertificates)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrUntrustedServer, err)
	}

	publicKey, err := h.cfg.verifier.VerifyServerCertificate(chain, h.cipherSuite.TrustName)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrUntrustedServer, err)
	}
	h.details.encryptionInfo.serverKey = publicKey
	h.peerCertificates = chain

	return nil
}

func (h *handshaker) sendClientKeyExchange(ctx context.Context) error {
	if h.details.certificateRequested {
		return fmt.Errorf("%w: client certificates", ErrUnsupportedFeature)
	}

	preMasterSecret, clientKeyExchange, err := h.agreement.generateClientKeyExchange(
		&h.details, &h.secrets, h.cfg.rand,
	)
	if err != nil {
		return err
	}

	masterSecret, err := prf.MasterSecret(
		preMasterSecret, h.clientRandom[:], h.serverRandom[:], h.cipherSuite.prfHash(),
	)
	memzero.Zero(preMasterSecret)
	if err != nil {
		return err
	}
	h.masterSecret = h.secrets.Track(masterSecret)
	h.cfg.writeKeyLog(keyLogLabelTLS12, h.clientRandom[:], h.masterSecret)

	if err := h.writeMessage(ctx, clientKeyExchange); err != nil {
		return err
	}

	return h.transition(stateClientKeyExchangeSent)
}

func (h *handshaker) sendChangeCipherSpec(ctx context.Context) error {
	payload, err := protocol.ChangeCipherSpec{}.Marshal()
	if err != nil {
		return err
	}
	if err := h.writer.WriteRecord(ctx, &recordlayer.Record{
		ContentType: protocol.ContentTypeChangeCipherSpec,
		Version:     protocol.Version1_2,
		Payload:     payload,
	}); err != nil {
		return err
	}

	suite := h.cipherSuite
	keys, err := prf.GenerateEncryptionKeys(
		h.masterSecret, h.clientRandom[:], h.serverRandom[:],
		suite.macLength(), suite.keyLength(), suite.FixedIVLength, suite.prfHash(),
	)
	if err != nil {
		return err
	}
	h.encryptor, h.decryptor, err = newRecordCiphers(suite, keys, h.cfg.rand)
	if err != nil {
		keys.Zero()

		return err
	}
	h.out.activate(h.encryptor)

	return h.transition(stateChangeCipherSpecSent)
}

func (h *handshaker) sendFinished(ctx context.Context) error {
	transcriptHash, err := h.transcript.sum()
	if err != nil {
		return err
	}
	verifyData, err := prf.VerifyDataClient(h.masterSecret, transcriptHash, h.cipherSuite.prfHash())
	if err != nil {
		return err
	}

	if err := h.writeMessage(ctx, &handshake.MessageFinished{VerifyData: verifyData}); err != nil {
		return err
	}

	return h.transition(stateFinishedSent)
}

func (h *handshaker) receiveChangeCipherSpec(ctx context.Context) error {
	if err := h.reader.readChangeCipherSpec(ctx); err != nil {
		return err
	}
	h.in.activate(h.decryptor)

	return h.transition(stateChangeCipherSpecReceived)
}

func (h *handshaker) receiveFinished(ctx context.Context) error {
	// The expected value covers the transcript up to, not including, the
	// server's Finished.
	transcriptHash, err := h.transcript.sum()
	if err != nil {
		return err
	}
	expected, err := prf.VerifyDataServer(h.masterSecret, transcriptHash, h.cipherSuite.prfHash())
	if err != nil {
		return err
	}

	msg, err := h.reader.expectMessage(ctx, handshake.TypeFinished)
	if err != nil {
		return err
	}
	finished, ok := msg.(*handshake.MessageFinished)
	if !ok {
		return fmt.Errorf("%w: malformed Finished", ErrProtocol)
	}
	if subtle.ConstantTimeCompare(expected, finished.VerifyData) != 1 {
		return ErrHandshakeVerificationFailed
	}
	if len(h.reader.buf) != 0 {
		return fmt.Errorf("%w: trailing handshake data after Finished", ErrProtocol)
	}

	return h.transition(stateEstablished)
}
