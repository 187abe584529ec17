package main

import (
	"orderharvest-backend/cmd/harvester/commands"
	"orderharvest-backend/lib/serviceutil"
	"orderharvest-backend/lib/telemetry"
)

func main() {
	ctx := serviceutil.SignalContext()
	telemetry.SetupFromEnv(ctx, "harvester")
	telemetry.InitSlog(false)
	telemetry.InstrumentPerfStats(ctx)
	commands.ExecuteContext(ctx)
}
