// Tapesort sorts a store file of native-endian int32 cells through simulated
// tapes under a memory budget.
//
// Usage:
//
//	tapesort input.bin output.bin config.yaml [--verify] [--log-level debug]
//	tapesort gen input.bin --count 1000000 --min -1000 --max 1000 --seed 7
//	tapesort verify input.bin output.bin
//
// A .env file in the working directory is loaded if present.
// TAPESORT_LOG_LEVEL and TAPESORT_TEMP_DIR override the flag and the
// configuration respectively.
package main

import "github.com/tamirms/tapesort/cmd/tapesort/cmd"

func main() {
	cmd.Execute()
}
