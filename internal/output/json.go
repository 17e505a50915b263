// internal/output/json.go
package output

import (
	"encoding/json"
	"os"

	"github.com/bkaplan/brickwatch/internal/utils"
)

func writeJSONFile(path string, value interface{}) error {
	data, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		return utils.WrapError(err, utils.ErrCodeOutputFailed, "failed to encode JSON")
	}
	if err := os.WriteFile(path, append(data, '\n'), 0644); err != nil {
		return utils.WrapError(err, utils.ErrCodeOutputFailed, "failed to write JSON file")
	}
	return nil
}
