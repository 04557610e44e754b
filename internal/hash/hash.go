package hash

import "golang.org/x/crypto/bcrypt"

// HashOTP stores one-time login codes the way passwords are stored; they are
// short-lived but never persisted in clear.
func HashOTP(code string) (string, error) {
	hashbytes, err := bcrypt.GenerateFromPassword([]byte(code), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hashbytes), nil
}

func CheckOTP(hash, code string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(code)) == nil
}
