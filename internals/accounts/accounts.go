package accounts

import (
	"errors"
	"strings"

	z "github.com/Oudwins/zog"

	"github.com/PhantomStrikers/sanguoxianhua/sdk"
)

const (
	DefaultName = "unnamed account"
	separator   = "+++"
)

var ErrNoAccounts = errors.New("no usable account: set SGS_TOKENS to lines of name+++token+++clientId")

type Account struct {
	Name     string `zog:"name"`
	Token    string `zog:"token"`
	ClientID string `zog:"clientId"`
}

var AccountSchema = z.Struct(z.Shape{
	"Name":     z.String().Default(DefaultName).Trim(),
	"Token":    z.String().Required().Trim(),
	"ClientID": z.String().Default(sdk.DefaultClientID).Trim(),
})

// Parse reads one account per line in the form name+++token+++clientId.
// Lines without a token are dropped. It returns ErrNoAccounts when nothing
// usable is left.
func Parse(value string) ([]Account, error) {
	list := []Account{}
	for _, line := range strings.Split(value, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		account, ok := parseLine(line)
		if !ok {
			continue
		}
		list = append(list, account)
	}
	if len(list) == 0 {
		return nil, ErrNoAccounts
	}
	return list, nil
}

func parseLine(line string) (Account, bool) {
	parts := strings.Split(line, separator)
	data := map[string]any{}
	keys := []string{"name", "token", "clientId"}
	for i, key := range keys {
		if i >= len(parts) {
			break
		}
		if part := strings.TrimSpace(parts[i]); part != "" {
			data[key] = part
		}
	}

	account := Account{}
	if errs := AccountSchema.Parse(data, &account); errs != nil {
		return Account{}, false
	}
	return account, account.Token != ""
}
