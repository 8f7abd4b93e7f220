// rotate-key re-encrypts every stored PII value with a new key. It runs
// offline, never concurrently with the server, and commits all tables in one
// transaction so a partial rotation can never leave mixed-key data behind.
package main

import (
	"flag"
	"fmt"
	"sync"

	"github.com/panjf2000/ants/v2"
	"github.com/pqlammy/Gennerweb-sub000/internal/config"
	"github.com/pqlammy/Gennerweb-sub000/internal/crypto"
	"github.com/pqlammy/Gennerweb-sub000/internal/database"
	"github.com/pqlammy/Gennerweb-sub000/internal/logger"
	"github.com/pqlammy/Gennerweb-sub000/internal/model"
	"gorm.io/gorm"
)

const rotateWorkers = 8

func main() {
	oldSecret := flag.String("old-key", "", "current encryption secret (32 ASCII or 64 hex chars)")
	newSecret := flag.String("new-key", "", "replacement encryption secret (32 ASCII or 64 hex chars)")
	flag.Parse()

	oldKey, err := crypto.KeyFromSecret(*oldSecret)
	if err != nil {
		logger.Fatal("invalid old key: %v", err)
	}
	newKey, err := crypto.KeyFromSecret(*newSecret)
	if err != nil {
		logger.Fatal("invalid new key: %v", err)
	}

	cfg := config.Load()
	db, err := database.Init(cfg.Database)
	if err != nil {
		logger.Fatal("Failed to initialize database: %v", err)
	}

	if err := rotate(db, oldKey, newKey); err != nil {
		logger.Fatal("rotation aborted, nothing was changed: %v", err)
	}
	logger.Info("key rotation complete")
}

// rotate re-encrypts contributions and login_logs inside one transaction. The
// cipher work runs on a worker pool; the database writes stay sequential
// because the transaction handle is not safe for concurrent use.
func rotate(db *gorm.DB, oldKey, newKey []byte) error {
	return db.Transaction(func(tx *gorm.DB) error {
		var contributions []model.Contribution
		if err := tx.Find(&contributions).Error; err != nil {
			return err
		}
		var logs []model.LoginLog
		if err := tx.Find(&logs).Error; err != nil {
			return err
		}

		pool, err := ants.NewPool(rotateWorkers)
		if err != nil {
			return err
		}
		defer pool.Release()

		var (
			wg        sync.WaitGroup
			mu        sync.Mutex
			rotateErr error
		)
		fail := func(err error) {
			mu.Lock()
			if rotateErr == nil {
				rotateErr = err
			}
			mu.Unlock()
		}

		for i := range contributions {
			record := &contributions[i]
			wg.Add(1)
			if err := pool.Submit(func() {
				defer wg.Done()
				if err := rotateContribution(record, oldKey, newKey); err != nil {
					fail(fmt.Errorf("contribution %s: %w", record.ID, err))
				}
			}); err != nil {
				wg.Done()
				fail(err)
			}
		}
		for i := range logs {
			entry := &logs[i]
			wg.Add(1)
			if err := pool.Submit(func() {
				defer wg.Done()
				rotated, err := rotateValue(entry.IPAddress, oldKey, newKey)
				if err != nil {
					fail(fmt.Errorf("login log %d: %w", entry.ID, err))
					return
				}
				entry.IPAddress = rotated
			}); err != nil {
				wg.Done()
				fail(err)
			}
		}
		wg.Wait()
		if rotateErr != nil {
			return rotateErr
		}

		for i := range contributions {
			record := &contributions[i]
			if err := tx.Model(record).Updates(map[string]interface{}{
				"first_name":  record.FirstName,
				"last_name":   record.LastName,
				"email":       record.Email,
				"address":     record.Address,
				"city":        record.City,
				"postal_code": record.PostalCode,
				"phone":       record.Phone,
			}).Error; err != nil {
				return err
			}
		}
		for i := range logs {
			entry := &logs[i]
			if err := tx.Model(entry).Update("ip_address", entry.IPAddress).Error; err != nil {
				return err
			}
		}

		logger.Info("rotated %d contributions and %d login logs", len(contributions), len(logs))
		return nil
	})
}

func rotateContribution(record *model.Contribution, oldKey, newKey []byte) error {
	fields := []*string{
		&record.FirstName, &record.LastName, &record.Email,
		&record.Address, &record.City, &record.PostalCode, &record.Phone,
	}
	for _, f := range fields {
		rotated, err := rotateValue(*f, oldKey, newKey)
		if err != nil {
			return err
		}
		*f = rotated
	}
	return nil
}

// rotateValue decrypts with the old key and re-encrypts with the new one.
// Legacy plaintext values get encrypted for the first time. An envelope that
// fails authentication under the old key aborts the rotation; carrying it
// forward would freeze the corruption in place.
func rotateValue(value string, oldKey, newKey []byte) (string, error) {
	plaintext, _, err := crypto.DecryptStrict(value, oldKey)
	if err != nil {
		return "", err
	}
	return crypto.Encrypt(plaintext, newKey)
}
