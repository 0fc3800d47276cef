package service

import (
	"bytes"
	"strings"
	"time"

	"paygate/api/internal/domain"
	"paygate/api/internal/infra/cache"
	"paygate/api/internal/infra/nats"
	"paygate/api/internal/logger"
	"paygate/api/internal/repository"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/btcutil/psbt"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/txscript"
	"github.com/btcsuite/btcd/wire"
	"gorm.io/gorm"
)

// how long a handed-out counter-proposal blocks a second round for the same
// invoice. the payer is expected to broadcast well within this
const payjoinSessionTTL = 10 * time.Minute

// PayjoinService counter-signs collaborative utxo transactions: the payer
// sends a draft paying the invoice identifier, the wallet contributes one of
// its own inputs and the receiver output absorbs the contributed value. the
// payer cannot tell which inputs belong to whom
type PayjoinService struct {
	db       *gorm.DB
	events   repository.PaymentEvents
	invoices Invoices
	n        *nats.NatsInfra
	l        logger.Logger
}

func NewPayjoinService(db *gorm.DB, repos *repository.Repositories, invoices Invoices, n *nats.NatsInfra, l logger.Logger) *PayjoinService {
	return &PayjoinService{db: db, events: repos.PaymentEvents, invoices: invoices, n: n, l: l}
}

func (s *PayjoinService) Propose(invoiceId string, psbtBase64 string) (string, error) {
	var errid = logger.GenErrorId()

	invoice, err := s.invoices.FindGlobal(s.db, invoiceId)
	if err != nil {
		return "", err
	}

	if invoice.Status.IsTerminal() || invoice.IsExpired(time.Now().Unix()) {
		return "", domain.ErrPayjoinNotEligible
	}

	method := eligibleMethod(invoice)
	if method == nil {
		return "", domain.ErrPayjoinNotEligible
	}

	// one counter-proposal at a time. a second draft while the first may
	// still hit the chain would let us be double-spent out of our own input
	if cache.PayjoinSessionsCache.Load(invoiceId) != nil {
		return "", domain.ErrPayjoinAlreadyBroadcast
	}

	// once anything was broadcast for this method, the original transaction
	// may confirm concurrently. no second collaboration
	events, err := s.events.FindByInvoice(s.db, invoiceId)
	if err != nil {
		s.l.TemplPaymentErr("payjoin find events error: "+err.Error(), errid, invoiceId, method.Network.ToString(), logger.NA)
		return "", domain.ErrInternalServerError
	}
	for c := range events {
		if events[c].MethodID == method.ID {
			return "", domain.ErrPayjoinAlreadyBroadcast
		}
	}

	packet, err := psbt.NewFromRawBytes(strings.NewReader(psbtBase64), true)
	if err != nil {
		return "", domain.ErrInvalidProposal
	}

	outIdx, err := findReceiverOutput(packet, method.Identifier)
	if err != nil {
		return "", err
	}

	contrib, err := s.n.ReqContributeInput(invoiceId)
	if err != nil {
		s.l.TemplPaymentErr("payjoin contribute input error: "+err.Error(), errid, invoiceId, method.Network.ToString(), logger.NA)
		return "", mapWireError(err)
	}

	hash, err := chainhash.NewHashFromStr(contrib.TxId)
	if err != nil {
		return "", domain.ErrInternalServerError
	}

	outpoint := wire.OutPoint{Hash: *hash, Index: contrib.Vout}
	packet.UnsignedTx.TxIn = append(packet.UnsignedTx.TxIn, wire.NewTxIn(&outpoint, nil, nil))
	packet.Inputs = append(packet.Inputs, psbt.PInput{})

	// the receiver output absorbs the contributed value, so the payer's
	// balance math stays untouched
	packet.UnsignedTx.TxOut[outIdx].Value += contrib.Amount

	counterProposal, err := packet.B64Encode()
	if err != nil {
		return "", domain.ErrInternalServerError
	}

	cache.PayjoinSessionsCache.Set(invoiceId, true, payjoinSessionTTL)

	return counterProposal, nil
}

func eligibleMethod(invoice *domain.Invoices) *domain.PaymentMethods {
	for c := range invoice.PaymentMethods {
		m := &invoice.PaymentMethods[c]
		if m.Active && m.SupportsPayjoin && m.Network.SupportsPayjoin() {
			return m
		}
	}
	return nil
}

// the draft must actually pay the invoice identifier, otherwise there is
// nothing to collaborate on
func findReceiverOutput(packet *psbt.Packet, identifier string) (int, error) {
	addr, err := btcutil.DecodeAddress(identifier, &chaincfg.MainNetParams)
	if err != nil {
		return -1, domain.ErrInternalServerError
	}

	script, err := txscript.PayToAddrScript(addr)
	if err != nil {
		return -1, domain.ErrInternalServerError
	}

	for i, out := range packet.UnsignedTx.TxOut {
		if bytes.Equal(out.PkScript, script) {
			return i, nil
		}
	}

	return -1, domain.ErrInvalidProposal
}
