package service

import (
	"context"
	"net/netip"

	"github.com/seroft/pharmhub-auth/internal/auth/domain"
	"github.com/seroft/pharmhub-auth/pkg/authsdk"
)

// RiskInput is what a login looks like before any session exists.
type RiskInput struct {
	User domain.User

	// Device is the stored record for this user and device ID, nil when
	// the user has never verified from it.
	Device *domain.Device

	// KnownDevices counts every device on record for the user.
	KnownDevices int

	DeviceID    string
	IPAddress   string
	Fingerprint string
}

// RiskDecision is OK, or a step-up status.
type RiskDecision struct {
	Status     authsdk.LoginStatus
	Suspicious bool

	// TrustDevice records the device as trusted without a challenge.
	TrustDevice bool

	// Reason is for logs only.
	Reason string
}

// RiskAssessor decides whether a login needs step-up verification.
type RiskAssessor interface {
	Assess(ctx context.Context, in RiskInput) RiskDecision
}

// DefaultRiskRules applies, in order: the admin step-up flag, unknown
// device, copied device ID, and network change.
type DefaultRiskRules struct {
	// TrustFirstDevice lets a user's very first device in without a
	// challenge.
	TrustFirstDevice bool
}

func (r DefaultRiskRules) Assess(_ context.Context, in RiskInput) RiskDecision {
	switch {
	case in.User.RequireOTP:
		return RiskDecision{Status: authsdk.StatusOTPRequired, Reason: "require_otp"}

	case in.Device == nil || !in.Device.Trusted:
		if r.TrustFirstDevice && in.KnownDevices == 0 {
			return RiskDecision{Status: authsdk.StatusOK, TrustDevice: true, Reason: "first_device"}
		}
		return RiskDecision{Status: authsdk.StatusNewDevice, Reason: "unknown_device"}

	case in.Fingerprint != "" && in.Device.Fingerprint != "" && in.Fingerprint != in.Device.Fingerprint:
		return RiskDecision{Status: authsdk.StatusSuspiciousLocation, Suspicious: true, Reason: "fingerprint_mismatch"}

	case !sameNetwork(in.Device.LastIP, in.IPAddress):
		return RiskDecision{Status: authsdk.StatusSuspiciousLocation, Suspicious: true, Reason: "network_change"}
	}
	return RiskDecision{Status: authsdk.StatusOK, Reason: "known_device"}
}

// sameNetwork compares IPv4 addresses by /24 and IPv6 by /48. Unparseable
// or missing addresses never count as a change.
func sameNetwork(a, b string) bool {
	pa, errA := netip.ParseAddr(a)
	pb, errB := netip.ParseAddr(b)
	if errA != nil || errB != nil {
		return true
	}
	pa, pb = pa.Unmap(), pb.Unmap()
	if pa.Is4() != pb.Is4() {
		return false
	}
	bits := 48
	if pa.Is4() {
		bits = 24
	}
	na, _ := pa.Prefix(bits)
	nb, _ := pb.Prefix(bits)
	return na == nb
}
