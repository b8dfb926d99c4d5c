package service

import (
	"fmt"
	"strings"
	"unicode/utf8"

	feeddomain "github.com/smallbiznis/formpay/internal/feed/domain"
	"github.com/smallbiznis/formpay/internal/payment/domain"
)

func (s *Service) fieldValue(sc *domain.SubmissionContext, fieldID string) string {
	if fieldID == "" {
		return ""
	}
	return strings.TrimSpace(s.hooks.FieldValue(sc, fieldID, sc.Entry.Value(fieldID)))
}

// metadata maps feed metadata fields to provider metadata. Empty keys or
// values are skipped and values are truncated.
func (s *Service) metadata(sc *domain.SubmissionContext) map[string]string {
	if sc.Feed == nil || len(sc.Feed.Metadata) == 0 {
		return nil
	}
	out := make(map[string]string, len(sc.Feed.Metadata))
	for _, mapping := range sc.Feed.Metadata {
		if len(out) == feeddomain.MaxMetadataEntries {
			break
		}
		key := truncate(strings.TrimSpace(mapping.Key), feeddomain.MaxMetadataKeyLength)
		if key == "" {
			continue
		}
		value := s.fieldValue(sc, mapping.FieldID)
		if value == "" {
			continue
		}
		out[key] = truncate(value, feeddomain.MaxMetadataValueLen)
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

func (s *Service) paymentDescription(sc *domain.SubmissionContext) string {
	parts := []string{fmt.Sprintf("Entry ID: %d", sc.EntryID())}

	names := make([]string, 0, len(sc.Data.LineItems))
	for _, item := range sc.Data.LineItems {
		if name := strings.TrimSpace(item.Name); name != "" {
			names = append(names, name)
		}
	}
	switch len(names) {
	case 0:
	case 1:
		parts = append(parts, "Product: "+names[0])
	default:
		parts = append(parts, "Products: "+strings.Join(names, ", "))
	}

	return s.hooks.Description(sc, strings.Join(parts, ", "))
}

func truncate(value string, max int) string {
	if utf8.RuneCountInString(value) <= max {
		return value
	}
	runes := []rune(value)
	return string(runes[:max])
}
