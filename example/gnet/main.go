package main

import (
	"github.com/lixenwraith/logmux"
	"github.com/lixenwraith/logmux/compat"
	"github.com/panjf2000/gnet/v2"
)

// Example gnet event handler
type echoServer struct {
	gnet.BuiltinEventEngine
}

func (es *echoServer) OnTraffic(c gnet.Conn) gnet.Action {
	buf, _ := c.Next(-1)
	c.Write(buf)
	return gnet.None
}

func main() {
	mgr, err := logmux.NewBuilder().
		RootLevel("DEBUG").
		Stream("console", "INFO").
		RotatingFile("server", "/var/log/gnet/server.log", "DEBUG", 10<<20, 5).
		Build()
	if err != nil {
		panic(err)
	}
	defer mgr.Close()

	gnetAdapter := compat.NewGnetAdapter(mgr.GetLogger("gnet"))

	// Configure gnet server with the logger
	err = gnet.Run(
		&echoServer{},
		"tcp://127.0.0.1:9000",
		gnet.WithMulticore(true),
		gnet.WithLogger(gnetAdapter),
		gnet.WithReusePort(true),
	)
	if err != nil {
		panic(err)
	}
}
