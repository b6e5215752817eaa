package usecase

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"medsupply/internal/domain"
)

// MintPipeline runs the ordered artifact chain that precedes a mint:
// connectivity probe, token-id prediction, payload encoding, image
// upload, metadata upload, then the ledger mint itself. Steps never
// reorder and the first failure aborts the rest.
type MintPipeline struct {
	Tokens        TokenRepository
	Ledger        *TokenLedger
	Store         ArtifactStore
	Encoder       CodeEncoder
	Network       string
	LedgerAddress string
	Clock         Clock
}

type PipelineMintRequest struct {
	Caller        string
	MedicineID    string
	Name          string
	ExpirySeconds int64
}

// MintReceipt reports the finished pipeline. PredictedTokenID is what
// the artifacts were stamped with; TokenID is what the ledger actually
// assigned. When they differ the mint still stands, Reconciled is
// false and WarningCode is set so the caller can re-issue artifacts.
type MintReceipt struct {
	TokenID          int64
	PredictedTokenID int64
	Reconciled       bool
	WarningCode      string
	Payload          domain.VerificationPayload
	QRArtifact       domain.Artifact
	MetadataArtifact domain.Artifact
}

const WarningTokenIDMismatch = "TOKEN_ID_MISMATCH"

func (p *MintPipeline) Execute(ctx context.Context, req PipelineMintRequest) (*MintReceipt, error) {
	if req.Caller == "" || req.MedicineID == "" || req.Name == "" || req.ExpirySeconds <= 0 {
		return nil, domain.ErrInvalidInput
	}

	if err := p.Store.TestConnectivity(ctx); err != nil {
		return nil, &domain.PipelineError{Step: domain.PipelineStepConnectivity, Err: err}
	}

	predicted, err := p.Tokens.NextTokenID(ctx)
	if err != nil {
		return nil, &domain.PipelineError{Step: domain.PipelineStepPredict, Err: err}
	}

	now := p.now()
	expiry := now.Add(time.Duration(req.ExpirySeconds) * time.Second)
	payload := domain.VerificationPayload{
		TokenID:         strconv.FormatInt(predicted, 10),
		DrugName:        req.Name,
		MedicineID:      req.MedicineID,
		ExpiryDate:      expiry.UTC().Format(time.RFC3339),
		ContractAddress: p.LedgerAddress,
		Network:         p.Network,
	}
	_, image, err := p.Encoder.Encode(payload)
	if err != nil {
		return nil, &domain.PipelineError{Step: domain.PipelineStepEncode, Err: err}
	}

	qrName := fmt.Sprintf("medicine_qr_%d.png", predicted)
	qrArtifact, err := p.Store.PutFile(ctx, qrName, image, "image/png")
	if err != nil {
		return nil, &domain.PipelineError{Step: domain.PipelineStepUploadImage, Err: err}
	}

	metadata := domain.TokenMetadata{
		Name:        fmt.Sprintf("%s - Medicine #%d", req.Name, predicted),
		Description: fmt.Sprintf("Verified pharmaceutical record for %s (medicine id %s).", req.Name, req.MedicineID),
		Image:       qrArtifact.URI,
		Attributes: []domain.MetadataAttribute{
			{TraitType: "Medicine ID", Value: req.MedicineID},
			{TraitType: "Drug Name", Value: req.Name},
			{TraitType: "Expiry", Value: payload.ExpiryDate},
			{TraitType: "Created", Value: now.UTC().Format(time.RFC3339)},
			{TraitType: "Network", Value: p.Network},
		},
		ExternalURL: p.LedgerAddress,
		QRCode:      qrArtifact.URI,
	}
	metaName := fmt.Sprintf("Medicine %d Metadata", predicted)
	metaArtifact, err := p.Store.PutJSON(ctx, metaName, metadata)
	if err != nil {
		return nil, &domain.PipelineError{Step: domain.PipelineStepUploadMetadata, Err: err}
	}

	tokenID, err := p.Ledger.Mint(ctx, MintRequest{
		Caller:        req.Caller,
		MedicineID:    req.MedicineID,
		Name:          req.Name,
		ExpirySeconds: req.ExpirySeconds,
		MetadataURI:   metaArtifact.URI,
	})
	if err != nil {
		return nil, &domain.PipelineError{Step: domain.PipelineStepMint, Err: err}
	}

	receipt := &MintReceipt{
		TokenID:          tokenID,
		PredictedTokenID: predicted,
		Reconciled:       tokenID == predicted,
		Payload:          payload,
		QRArtifact:       qrArtifact,
		MetadataArtifact: metaArtifact,
	}
	if !receipt.Reconciled {
		receipt.WarningCode = WarningTokenIDMismatch
	}
	return receipt, nil
}

func (p *MintPipeline) now() time.Time {
	if p.Clock != nil {
		return p.Clock()
	}
	return time.Now().UTC()
}
