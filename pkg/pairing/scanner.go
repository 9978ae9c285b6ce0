package pairing

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/hclink/hclink-go/pkg/at"
	"github.com/hclink/hclink-go/pkg/configurator"
	"github.com/hclink/hclink-go/pkg/dialect"
	"github.com/hclink/hclink-go/pkg/serial"
)

// InquiryScanner runs AT+INQ on a master-capable module.
type InquiryScanner struct {
	Dialer   serial.Dialer
	Detector ProfileDetector
	Duration time.Duration
	Options  configurator.Options
}

// Scan detects the module on port, switches it to master and returns the
// addresses reported within Duration. Partial output after a timeout is
// still parsed. Every command sent is returned in results, also on error.
func (s *InquiryScanner) Scan(ctx context.Context, port string) (found []at.Address, results []at.Result, err error) {
	det, err := s.Detector.Detect(ctx, port)
	if err != nil {
		return nil, nil, err
	}
	md, err := dialect.AsMaster(dialect.ForModule(det.Module))
	if err != nil {
		return nil, nil, err
	}

	link, err := s.Dialer.Dial(port, det.Profile)
	if err != nil {
		return nil, nil, err
	}
	defer link.Close()
	sess := s.Options.NewSession(port, link, det.Profile)

	role, _ := md.SetRole(dialect.RoleMaster)
	res, err := sess.Send(ctx, role)
	results = append(results, res)
	if err != nil {
		return nil, results, fmt.Errorf("inquiry: %w", err)
	}
	res, err = sess.Send(ctx, md.Init())
	results = append(results, res)
	if err != nil && !errors.Is(err, at.ErrCommandFailed) {
		return nil, results, fmt.Errorf("inquiry: %w", err)
	}

	d := s.Duration
	if d <= 0 {
		d = 8 * time.Second
	}
	res, err = sess.Send(ctx, md.Inquire(d))
	results = append(results, res)
	if err != nil && !errors.Is(err, at.ErrCommandFailed) {
		return nil, results, fmt.Errorf("inquiry: %w", err)
	}
	return at.ParseAddresses(res.Raw), results, nil
}

var _ Scanner = (*InquiryScanner)(nil)
