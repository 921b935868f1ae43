package manifest

import (
	"os"

	"github.com/a2-ai/dvs/internal/dvserr"
)

func readFile(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, dvserr.Wrap(dvserr.NotFound, "manifest not found", err).WithPath(path)
		}
		return nil, dvserr.Wrap(dvserr.IOError, "reading manifest", err).WithPath(path)
	}
	return data, nil
}
