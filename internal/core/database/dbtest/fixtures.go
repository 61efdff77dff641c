package dbtest

import (
	"fmt"
	"time"

	groupDatamodel "github.com/frahmantamala/group-expenses/internal/core/datamodel/group"
	paymentMethodDatamodel "github.com/frahmantamala/group-expenses/internal/core/datamodel/paymentmethod"
	userDatamodel "github.com/frahmantamala/group-expenses/internal/core/datamodel/user"
)

// The fixture helpers panic on failure; ginkgo reports the panic against the running It.

func (d *DB) MustCreateUser(email, name string) *userDatamodel.User {
	u := &userDatamodel.User{Email: email, Name: name, PasswordHash: "x"}
	must(d.Gorm.Create(u).Error)
	return u
}

// MustCreateGroup creates a group hosted by hostID with the given members.
func (d *DB) MustCreateGroup(name, currency string, hostID int64, memberIDs ...int64) *groupDatamodel.Group {
	g := &groupDatamodel.Group{Name: name, Currency: currency}
	must(d.Gorm.Create(g).Error)
	must(d.Gorm.Create(&groupDatamodel.UserGroup{UserID: hostID, GroupID: g.ID, Role: "HOST"}).Error)
	for _, id := range memberIDs {
		must(d.Gorm.Create(&groupDatamodel.UserGroup{UserID: id, GroupID: g.ID, Role: "MEMBER"}).Error)
	}
	return g
}

func (d *DB) MustCreatePaymentMethod(userID int64, service, token string, confirmed bool) *paymentMethodDatamodel.PaymentMethod {
	pm := &paymentMethodDatamodel.PaymentMethod{UserID: userID, Service: service, Token: token}
	if confirmed {
		now := time.Now()
		pm.ConfirmedAt = &now
	}
	must(d.Gorm.Create(pm).Error)
	return pm
}

func must(err error) {
	if err != nil {
		panic(fmt.Sprintf("dbtest fixture: %v", err))
	}
}
