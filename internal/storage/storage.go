// Copyright 2023 Blink Labs Software
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package storage persists UTxO pools and in-progress transaction drafts
// between builder invocations.
package storage

import (
	"fmt"
	"strings"

	"github.com/blinklabs-io/cardano-txbuilder/internal/config"
	"github.com/blinklabs-io/cardano-txbuilder/internal/logging"

	"github.com/dgraph-io/badger/v4"
)

type Storage struct {
	db *badger.DB
}

var globalStorage = &Storage{}

func (s *Storage) Load() error {
	cfg := config.GetConfig()
	badgerOpts := badger.DefaultOptions(cfg.Storage.Directory).
		WithLogger(NewBadgerLogger()).
		// The default INFO logging is a bit verbose
		WithLoggingLevel(badger.WARNING)
	db, err := badger.Open(badgerOpts)
	if err != nil {
		return err
	}
	s.db = db
	return nil
}

func (s *Storage) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// AddUtxo records the CBOR-encoded UTxO bytes for an address, under a key
// derived from its tx hash and output index.
func (s *Storage) AddUtxo(
	address string,
	txId string,
	txOutIdx uint32,
	utxoCbor []byte,
) error {
	logger := logging.GetLogger()
	utxoId := fmt.Sprintf("%s.%d", txId, txOutIdx)
	logger.Debugf("adding UTxO %s to storage", utxoId)
	utxoKey := fmt.Sprintf("utxo_%s_%s", address, utxoId)
	addressKey := fmt.Sprintf("address_%s", address)
	return s.db.Update(func(txn *badger.Txn) error {
		if err := txn.Set([]byte(utxoKey), utxoCbor); err != nil {
			return err
		}
		var oldVal []byte
		addressItem, err := txn.Get([]byte(addressKey))
		if err != nil {
			if err != badger.ErrKeyNotFound {
				return err
			}
		} else {
			if err := addressItem.Value(func(val []byte) error {
				oldVal = append([]byte{}, val...)
				return nil
			}); err != nil {
				return err
			}
		}
		newVal := utxoId
		if len(oldVal) > 0 {
			newVal = fmt.Sprintf("%s,%s", oldVal, utxoId)
		}
		return txn.Set([]byte(addressKey), []byte(newVal))
	})
}

// RemoveUtxo deletes a previously-recorded UTxO, used once it has been
// consumed as a transaction input.
func (s *Storage) RemoveUtxo(address, txId string, utxoIdx uint32) error {
	logger := logging.GetLogger()
	utxoId := fmt.Sprintf("%s.%d", txId, utxoIdx)
	utxoKey := fmt.Sprintf("utxo_%s_%s", address, utxoId)
	addressKey := fmt.Sprintf("address_%s", address)
	return s.db.Update(func(txn *badger.Txn) error {
		if err := txn.Delete([]byte(utxoKey)); err != nil && err != badger.ErrKeyNotFound {
			return err
		}
		logger.Debugf("removed UTxO %s from storage", utxoId)
		addressItem, err := txn.Get([]byte(addressKey))
		if err != nil {
			if err == badger.ErrKeyNotFound {
				return nil
			}
			return err
		}
		return addressItem.Value(func(utxosVal []byte) error {
			var newUtxos []string
			for _, item := range strings.Split(string(utxosVal), ",") {
				if item != utxoId {
					newUtxos = append(newUtxos, item)
				}
			}
			return txn.Set([]byte(addressKey), []byte(strings.Join(newUtxos, ",")))
		})
	})
}

// GetUtxos returns the raw CBOR bytes of every UTxO recorded for an address.
func (s *Storage) GetUtxos(address string) ([][]byte, error) {
	var ret [][]byte
	keyPrefix := []byte(fmt.Sprintf("utxo_%s_", address))
	err := s.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()
		for it.Seek(keyPrefix); it.ValidForPrefix(keyPrefix); it.Next() {
			item := it.Item()
			if err := item.Value(func(v []byte) error {
				ret = append(ret, append([]byte{}, v...))
				return nil
			}); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return ret, nil
}

// SaveDraft persists an EMIP-3 encrypted draft payload under name.
func (s *Storage) SaveDraft(name string, envelope []byte) error {
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(fmt.Sprintf("draft_%s", name)), envelope)
	})
}

// LoadDraft returns a previously saved EMIP-3 envelope, or
// badger.ErrKeyNotFound if none exists under name.
func (s *Storage) LoadDraft(name string) ([]byte, error) {
	var ret []byte
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(fmt.Sprintf("draft_%s", name)))
		if err != nil {
			return err
		}
		return item.Value(func(v []byte) error {
			ret = append([]byte{}, v...)
			return nil
		})
	})
	return ret, err
}

func GetStorage() *Storage {
	return globalStorage
}

// BadgerLogger is a wrapper type to give our logger the expected interface
type BadgerLogger struct {
	*logging.Logger
}

func NewBadgerLogger() *BadgerLogger {
	return &BadgerLogger{
		Logger: logging.GetLogger(),
	}
}

func (b *BadgerLogger) Warningf(msg string, args ...any) {
	b.Logger.Warnf(msg, args...)
}
