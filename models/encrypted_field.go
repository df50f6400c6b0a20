// Package models contains domain entities and business models for the portal accounts
package models

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"sync"

	"github.com/amirphl/dti-portal/utils"
	"gorm.io/gorm/schema"
)

var ErrFieldCipherNotConfigured = errors.New("field cipher not configured")

var (
	fieldCipherMu sync.RWMutex
	fieldCipher   *utils.FieldCipher
)

func init() {
	schema.RegisterSerializer("encrypted", EncryptedSerializer{})
}

// SetFieldCipher installs the cipher used by the "encrypted" serializer
func SetFieldCipher(c *utils.FieldCipher) {
	fieldCipherMu.Lock()
	defer fieldCipherMu.Unlock()
	fieldCipher = c
}

func currentFieldCipher() (*utils.FieldCipher, error) {
	fieldCipherMu.RLock()
	defer fieldCipherMu.RUnlock()
	if fieldCipher == nil {
		return nil, ErrFieldCipherNotConfigured
	}
	return fieldCipher, nil
}

// EncryptedSerializer stores *string and string columns as AES-GCM ciphertext.
// Nil and empty values are stored as NULL.
type EncryptedSerializer struct{}

// Scan implements schema.SerializerInterface
func (EncryptedSerializer) Scan(ctx context.Context, field *schema.Field, dst reflect.Value, dbValue any) error {
	fieldValue := reflect.New(field.FieldType)

	if dbValue != nil {
		var stored string
		switch v := dbValue.(type) {
		case string:
			stored = v
		case []byte:
			stored = string(v)
		default:
			return fmt.Errorf("cannot scan %T into encrypted field %s", dbValue, field.Name)
		}

		if stored != "" {
			c, err := currentFieldCipher()
			if err != nil {
				return err
			}
			plaintext, err := c.Decrypt(stored)
			if err != nil {
				return fmt.Errorf("failed to decrypt field %s: %w", field.Name, err)
			}

			switch field.FieldType.Kind() {
			case reflect.Ptr:
				fieldValue.Elem().Set(reflect.ValueOf(&plaintext))
			case reflect.String:
				fieldValue.Elem().SetString(plaintext)
			default:
				return fmt.Errorf("encrypted serializer does not support %s", field.FieldType)
			}
		}
	}

	field.ReflectValueOf(ctx, dst).Set(fieldValue.Elem())
	return nil
}

// Value implements schema.SerializerValuerInterface
func (EncryptedSerializer) Value(ctx context.Context, field *schema.Field, dst reflect.Value, fieldValue any) (any, error) {
	var plaintext string
	switch v := fieldValue.(type) {
	case nil:
		return nil, nil
	case *string:
		if v == nil {
			return nil, nil
		}
		plaintext = *v
	case string:
		plaintext = v
	default:
		return nil, fmt.Errorf("encrypted serializer does not support %T", fieldValue)
	}

	if plaintext == "" {
		return nil, nil
	}

	c, err := currentFieldCipher()
	if err != nil {
		return nil, err
	}
	return c.Encrypt(plaintext)
}
