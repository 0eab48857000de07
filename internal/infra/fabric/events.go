package fabric

import (
	"context"

	"github.com/hyperledger/fabric-gateway/pkg/client"
	"github.com/hyperledger/fabric-protos-go-apiv2/peer"

	"github.com/ledgerbridge/asset-gateway/internal/core/domain"
)

// FilteredBlockEvents subscribes to filtered block events from the given
// block number (zero means the next committed block) and converts them off
// the proto types.
func (c *Client) FilteredBlockEvents(ctx context.Context, startBlock uint64) (<-chan *domain.Block, error) {
	var opts []client.BlockEventsOption
	if startBlock > 0 {
		opts = append(opts, client.WithStartBlock(startBlock))
	}

	events, err := c.network.FilteredBlockEvents(ctx, opts...)
	if err != nil {
		return nil, err
	}

	out := make(chan *domain.Block)
	go func() {
		defer close(out)
		for fb := range events {
			select {
			case out <- convertFilteredBlock(fb):
			case <-ctx.Done():
				return
			}
		}
	}()
	return out, nil
}

func convertFilteredBlock(fb *peer.FilteredBlock) *domain.Block {
	block := &domain.Block{
		Number:    fb.GetNumber(),
		ChannelID: fb.GetChannelId(),
	}
	for _, ft := range fb.GetFilteredTransactions() {
		block.Transactions = append(block.Transactions, domain.CommitEvent{
			TransactionID: ft.GetTxid(),
			Code:          domain.ValidationCode(ft.GetTxValidationCode().String()),
		})
	}
	return block
}
