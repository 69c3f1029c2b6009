package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/leon-do/web3hook-emit/internal/triggerregistry"
	"github.com/leon-do/web3hook-emit/internal/triggerwatch"

	"github.com/redis/go-redis/v9"
)

// triggerKeyPrefix namespaces all trigger keys.
const triggerKeyPrefix = "trigger"

// triggerRecordKey builds the key holding the JSON record of a trigger:
// "trigger:record:<id>".
func triggerRecordKey(id string) string {
	return fmt.Sprintf("%s:record:%s", triggerKeyPrefix, id)
}

// triggerIndexKey builds the key of the set indexing trigger ids by chain and
// watched address: "trigger:index:<chainID>:<address>". Addresses are stored
// lowercase by the registry.
func triggerIndexKey(chainID int64, address string) string {
	return fmt.Sprintf("%s:index:%d:%s", triggerKeyPrefix, chainID, address)
}

// triggerRecord is the persisted JSON shape of a trigger.
type triggerRecord struct {
	ID         string `json:"id"`
	UserID     string `json:"userId"`
	ChainID    int64  `json:"chainId"`
	Address    string `json:"address"`
	WebhookURL string `json:"webhookUrl"`
	ABI        string `json:"abi,omitempty"`
}

// SaveTrigger implements the triggerregistry.TriggerStorage interface.
//
// The record and its index entry are written in one transaction so the block
// pipeline never finds an id pointing at a missing record.
func (c *client) SaveTrigger(ctx context.Context, trigger triggerregistry.Trigger) error {
	record := triggerRecord{
		ID:         trigger.ID,
		UserID:     trigger.UserID,
		ChainID:    trigger.ChainID,
		Address:    trigger.Address,
		WebhookURL: trigger.WebhookURL,
		ABI:        trigger.ABI,
	}

	data, err := json.Marshal(record)
	if err != nil {
		return err
	}

	_, err = c.conn.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, triggerRecordKey(record.ID), data, 0)
		pipe.SAdd(ctx, triggerIndexKey(record.ChainID, record.Address), record.ID)
		return nil
	})
	return err
}

// DeleteTrigger implements the triggerregistry.TriggerStorage interface.
func (c *client) DeleteTrigger(ctx context.Context, id string) error {
	data, err := c.conn.Get(ctx, triggerRecordKey(id)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			err = triggerregistry.ErrTriggerNotFound
		}
		return err
	}

	var record triggerRecord
	if err := json.Unmarshal([]byte(data), &record); err != nil {
		return err
	}

	_, err = c.conn.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.SRem(ctx, triggerIndexKey(record.ChainID, record.Address), id)
		pipe.Del(ctx, triggerRecordKey(id))
		return nil
	})
	return err
}

// FindTriggersByAddress implements the triggerwatch.TriggerStorage interface.
//
// It unions the per-address index sets, then multi-gets the records. Records
// deleted between the two steps are silently skipped.
func (c *client) FindTriggersByAddress(ctx context.Context, chainID int64, addresses []string) ([]triggerwatch.Trigger, error) {
	indexKeys := make([]string, len(addresses))
	for i, address := range addresses {
		indexKeys[i] = triggerIndexKey(chainID, address)
	}

	ids, err := c.conn.SUnion(ctx, indexKeys...).Result()
	if err != nil {
		return nil, err
	}

	if len(ids) == 0 {
		return nil, nil
	}

	recordKeys := make([]string, len(ids))
	for i, id := range ids {
		recordKeys[i] = triggerRecordKey(id)
	}

	values, err := c.conn.MGet(ctx, recordKeys...).Result()
	if err != nil {
		return nil, err
	}

	triggers := make([]triggerwatch.Trigger, 0, len(values))
	for _, value := range values {
		data, ok := value.(string)
		if !ok {
			continue
		}

		var record triggerRecord
		if err := json.Unmarshal([]byte(data), &record); err != nil {
			return nil, err
		}

		triggers = append(triggers, triggerwatch.Trigger{
			ID:         record.ID,
			UserID:     record.UserID,
			ChainID:    record.ChainID,
			Address:    record.Address,
			WebhookURL: record.WebhookURL,
			ABI:        record.ABI,
		})
	}

	return triggers, nil
}

var (
	_ triggerregistry.TriggerStorage = new(client)
	_ triggerwatch.TriggerStorage    = new(client)
)
