package services

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	qrcode "github.com/skip2/go-qrcode"

	"github.com/DhavalSuthar-24/bookmytickets/utils"
)

// CredentialService renders the scannable credential for a sold ticket and
// persists it under the artifact directory served at /qr-codes/.
type CredentialService struct {
	dir string
}

func NewCredentialService(dir string) *CredentialService {
	return &CredentialService{dir: dir}
}

// Issue encodes the sale identifiers into a QR image and returns the
// reference stored on the ticket. The file name carries the issue time plus
// random hex so that concurrent issues for the same user cannot collide.
func (s *CredentialService) Issue(userID, eventID, ticketID string) (string, error) {
	payload := fmt.Sprintf("UserID:%s,EventID:%s,TicketID:%s", userID, eventID, ticketID)

	suffix, err := utils.GenerateCode(4)
	if err != nil {
		return "", fmt.Errorf("credential file name: %w", err)
	}
	fileName := fmt.Sprintf("%s-%d-%s.png", userID, time.Now().UnixMilli(), suffix)

	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return "", fmt.Errorf("credential directory: %w", err)
	}
	if err := qrcode.WriteFile(payload, qrcode.Medium, 256, filepath.Join(s.dir, fileName)); err != nil {
		return "", fmt.Errorf("write credential image: %w", err)
	}

	return "/qr-codes/" + fileName, nil
}
