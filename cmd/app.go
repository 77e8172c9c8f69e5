package cmd

import (
	"fmt"

	"gorm.io/gorm"

	"github.com/mdwight/quittance/internal/config"
	"github.com/mdwight/quittance/internal/logger"
	"github.com/mdwight/quittance/internal/receipt"
	"github.com/mdwight/quittance/internal/store"
)

// app is the composition root: it opens the database once per command and
// wires concrete adapters into the pipeline orchestrators via constructor
// injection.
type app struct {
	cfg      *config.Config
	db       *gorm.DB
	payments *store.PaymentStore
	receipts *store.ReceiptStore
	parties  *store.PartyStore
}

func newApp() (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	db, err := store.Open(cfg.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}

	return &app{
		cfg:      cfg,
		db:       db,
		payments: store.NewPaymentStore(db),
		receipts: store.NewReceiptStore(db),
		parties:  store.NewPartyStore(db),
	}, nil
}

func (a *app) archiver() receipt.Archiver {
	return receipt.NewFallbackArchiver(
		receipt.NewWebdavArchiver(a.cfg.WebdavConfig()),
		receipt.NewLocalArchiver(a.cfg.ArchiveFallbackDir),
		logger.WithComponent("archive"),
	)
}

func (a *app) mailSender() receipt.Sender {
	return receipt.NewSMTPSender(a.cfg.SMTPConfig())
}

func (a *app) generator() *receipt.Generator {
	return receipt.NewGenerator(
		a.payments,
		a.receipts,
		receipt.NewHTMLBuilder(receipt.FileTemplateRenderer{}, a.cfg.TemplatePath),
		receipt.WkhtmltopdfGenerator{},
		a.cfg.PDFOptions(),
		a.cfg.Landlord(),
		logger.WithComponent("generator"),
	)
}

func (a *app) sendArchiver() *receipt.SendArchiver {
	return receipt.NewSendArchiver(
		a.receipts,
		a.mailSender(),
		a.archiver(),
		a.cfg.WebdavTargetDir,
		logger.WithComponent("sender"),
	)
}

func (a *app) batchGenerator() *receipt.BatchGenerator {
	return receipt.NewBatchGenerator(
		a.payments,
		a.receipts,
		a.generator(),
		logger.WithComponent("batch"),
	)
}

func (a *app) batchSender() *receipt.BatchSender {
	return receipt.NewBatchSender(
		a.receipts,
		a.mailSender(),
		a.archiver(),
		a.cfg.WebdavTargetDir,
		logger.WithComponent("batch"),
	)
}

func (a *app) processor() *receipt.Processor {
	return receipt.NewProcessor(
		a.payments,
		a.generator(),
		a.sendArchiver(),
		a.cfg.Location(),
		logger.WithComponent("process"),
	)
}
