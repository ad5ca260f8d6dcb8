package forum

import (
	"context"
	"encoding/json"
	"fmt"

	dbm "github.com/cometbft/cometbft-db"
	abci "github.com/cometbft/cometbft/abci/types"
	"github.com/cometbft/cometbft/libs/log"
	"github.com/cometbft/cometbft/version"

	"github.com/alijnmerchant21/messagefeed/config"
	"github.com/alijnmerchant21/messagefeed/feed"
	"github.com/alijnmerchant21/messagefeed/model"
	"github.com/alijnmerchant21/messagefeed/moderators"
)

const AppVersion uint64 = 1

type FeedApp struct {
	abci.BaseApplication
	DB *model.DB

	state      AppState
	exec       *executor
	block      *overlay
	queryLimit int
	metrics    *Metrics
	logger     log.Logger
}

func NewFeedApp(cfg *config.Config, stateDB dbm.DB, logger log.Logger, metrics *Metrics) (*FeedApp, error) {
	if logger == nil {
		logger = log.NewNopLogger()
	}
	if metrics == nil {
		metrics = NewMetrics(nil)
	}

	var opts []feed.Option
	mods, err := moderators.Parse(cfg.Moderators)
	if err != nil {
		return nil, err
	}
	if mods.Len() > 0 {
		logger.Info("ban authority restricted", "moderators", mods.List())
		opts = append(opts, feed.WithModerators(mods))
	}
	if cfg.ReinitGuard {
		opts = append(opts, feed.WithReinitGuard())
	}

	state, err := loadState(stateDB)
	if err != nil {
		return nil, err
	}

	db, err := model.New(cfg.DBDir)
	if err != nil {
		return nil, err
	}

	return &FeedApp{
		DB:    db,
		state: state,
		exec: &executor{
			validator:     feed.NewValidator(logger.With("module", "feed"), opts...),
			maxRecordSize: cfg.MaxRecordSize,
		},
		block:      newOverlay(db),
		queryLimit: cfg.FeedQueryLimit,
		metrics:    metrics,
		logger:     logger,
	}, nil
}

func (app *FeedApp) Close() error {
	return app.DB.Close()
}

// Return application info
func (app *FeedApp) Info(_ context.Context, info *abci.RequestInfo) (*abci.ResponseInfo, error) {
	return &abci.ResponseInfo{
		Data:             "messagefeed",
		Version:          version.ABCIVersion,
		AppVersion:       AppVersion,
		LastBlockHeight:  app.state.Height,
		LastBlockAppHash: app.state.Hash(),
	}, nil
}

// Query committed state. Data is the 32 byte identity the path refers to.
func (app *FeedApp) Query(_ context.Context, query *abci.RequestQuery) (*abci.ResponseQuery, error) {
	resp := &abci.ResponseQuery{Key: query.Data, Height: app.state.Height}
	if len(query.Data) != model.IdentitySize {
		resp.Code = CodeTypeEncodingError
		resp.Log = fmt.Sprintf("query data must be a %d byte identity", model.IdentitySize)
		return resp, nil
	}
	var id model.Identity
	copy(id[:], query.Data)

	var (
		value interface{}
		err   error
	)
	switch query.Path {
	case "/account":
		acc, err := app.DB.Account(id)
		if err != nil {
			resp.Code = CodeTypeInternalError
			resp.Log = err.Error()
			return resp, nil
		}
		if acc == nil {
			resp.Code = CodeTypeUnknownAccount
			resp.Log = fmt.Sprintf("account %s not found", id)
			return resp, nil
		}
		resp.Value = acc.Data
		return resp, nil
	case "/feed":
		value, err = app.DB.ReadFeed(id, app.queryLimit)
	case "/messages":
		value, err = app.DB.MessagesFrom(id)
	default:
		resp.Code = CodeTypeUnknownQuery
		resp.Log = fmt.Sprintf("unknown query path %q", query.Path)
		return resp, nil
	}
	if err != nil {
		resp.Code = CodeTypeInternalError
		resp.Log = err.Error()
		return resp, nil
	}
	if resp.Value, err = json.Marshal(value); err != nil {
		return nil, err
	}
	return resp, nil
}

// CheckTx runs the transaction against committed state and discards the result.
// A tx depending on another tx that is still in the mempool is rejected here.
func (app *FeedApp) CheckTx(_ context.Context, checktx *abci.RequestCheckTx) (*abci.ResponseCheckTx, error) {
	tx, err := model.ParseTx(checktx.Tx)
	if err == nil {
		_, err = app.exec.run(tx, app.DB)
	}
	if err != nil {
		app.logger.Debug("rejected tx in CheckTx", "err", err)
		return &abci.ResponseCheckTx{Code: resultCode(err), Log: err.Error()}, nil
	}
	return &abci.ResponseCheckTx{Code: CodeTypeOK}, nil
}

// Reject proposals carrying transactions that cannot be decoded or whose
// signatures do not verify.
func (app *FeedApp) ProcessProposal(_ context.Context, proposal *abci.RequestProcessProposal) (*abci.ResponseProcessProposal, error) {
	for _, raw := range proposal.Txs {
		tx, err := model.ParseTx(raw)
		if err == nil {
			_, err = tx.Verify()
		}
		if err != nil {
			app.logger.Error("rejecting proposal", "height", proposal.Height, "err", err)
			return &abci.ResponseProcessProposal{Status: abci.ResponseProcessProposal_REJECT}, nil
		}
	}
	return &abci.ResponseProcessProposal{Status: abci.ResponseProcessProposal_ACCEPT}, nil
}

// Deliver the decided block with its txs to the Application
func (app *FeedApp) FinalizeBlock(_ context.Context, finalizeblock *abci.RequestFinalizeBlock) (*abci.ResponseFinalizeBlock, error) {
	results := make([]*abci.ExecTxResult, len(finalizeblock.Txs))
	for i, raw := range finalizeblock.Txs {
		results[i] = app.deliverTx(raw)
	}
	app.state.Height = finalizeblock.Height
	return &abci.ResponseFinalizeBlock{
		TxResults: results,
		AppHash:   app.state.Hash(),
	}, nil
}

func (app *FeedApp) deliverTx(raw []byte) *abci.ExecTxResult {
	tx, err := model.ParseTx(raw)
	var ws *workingSet
	if err == nil {
		ws, err = app.exec.run(tx, app.block)
	}
	app.metrics.observe(err)
	if err != nil {
		app.logger.Info("tx rejected", "code", resultCode(err), "err", err)
		return &abci.ExecTxResult{Code: resultCode(err), Log: err.Error()}
	}

	app.block.merge(ws)
	app.state.Size++

	events := make([]abci.Event, 0, len(ws.posts))
	for _, p := range ws.posts {
		events = append(events, abci.Event{
			Type: "post",
			Attributes: []abci.EventAttribute{
				{Key: "user", Value: p.user.String(), Index: true},
				{Key: "message", Value: p.message.String(), Index: true},
			},
		})
	}
	return &abci.ExecTxResult{Code: CodeTypeOK, Events: events}
}

// Commit the state and return the application Merkle root hash.
// Accounts and AppState live in different stores; a crash between the two
// writes leaves accounts one block ahead of the saved height, and replaying
// that block yields a different app hash.
func (app *FeedApp) Commit(_ context.Context, commit *abci.RequestCommit) (*abci.ResponseCommit, error) {
	if err := app.block.flush(); err != nil {
		return nil, fmt.Errorf("failed to commit accounts: %w", err)
	}
	if err := saveState(&app.state); err != nil {
		return nil, fmt.Errorf("failed to save app state: %w", err)
	}
	app.metrics.Height.Set(float64(app.state.Height))
	return &abci.ResponseCommit{}, nil
}
