package auth

import (
	"context"
	"sync"
	"time"

	"github.com/bkovacev/runsight/pkg"

	log "github.com/sirupsen/logrus"
)

const DefaultTTL = 24 * 7 * time.Hour

type Admin struct {
	Username     string
	PasswordHash string
}

// Service holds admin login sessions in memory. This is a single-user
// service, sessions do not survive a restart and that is fine, the admin
// just logs in again.
type Service struct {
	mutex    sync.Mutex
	sessions map[string]time.Time
	ttl      time.Duration
	// ability to inject random string generator func for tokens (for unit and dev testing)
	RandStringFunc func(s int) (string, error)
}

func NewService(ttl time.Duration) *Service {
	return &Service{
		ttl:            ttl,
		sessions:       make(map[string]time.Time),
		RandStringFunc: pkg.GenerateRandomString,
	}
}

func (as *Service) Login(createdAt time.Time) (string, error) {
	token, err := as.RandStringFunc(35)
	if err != nil {
		return "", err
	}

	as.mutex.Lock()
	defer as.mutex.Unlock()
	as.sessions[token] = createdAt

	return token, nil
}

func (as *Service) Logout(token string) bool {
	as.mutex.Lock()
	defer as.mutex.Unlock()

	if _, ok := as.sessions[token]; !ok {
		return false
	}

	delete(as.sessions, token)
	return true
}

func (as *Service) IsLogged(_ context.Context, token string) (bool, error) {
	as.mutex.Lock()
	defer as.mutex.Unlock()

	createdAt, ok := as.sessions[token]
	if !ok {
		return false, nil
	}
	if time.Since(createdAt) > as.ttl {
		return false, nil
	}
	return true, nil
}

// ScanAndClean will run through all sessions, check the TTL, and clean them if old
func (as *Service) ScanAndClean() {
	as.mutex.Lock()
	defer as.mutex.Unlock()

	if len(as.sessions) == 0 {
		log.Warnln("=> auth service, scan and clean abort, no sessions")
		return
	}

	log.Warnf("=> auth service, scan and clean [%d sessions] start ...", len(as.sessions))
	for token, createdAt := range as.sessions {
		if time.Since(createdAt) > as.ttl {
			log.Warnf("=>\twill clean the session with token: %s", token)
			delete(as.sessions, token)
		}
	}
}
