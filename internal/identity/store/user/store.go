// Package user persists user accounts together with their wallet link and
// credential record.
package user

import (
	"cropchain/internal/identity/models"
)

func clone(u *models.User) *models.User {
	if u == nil {
		return nil
	}
	cp := *u
	if u.Verification != nil {
		v := *u.Verification
		if v.RevokedAt != nil {
			t := *v.RevokedAt
			v.RevokedAt = &t
		}
		cp.Verification = &v
	}
	if u.VerificationHistory != nil {
		cp.VerificationHistory = append([]models.Verification(nil), u.VerificationHistory...)
	}
	return &cp
}
