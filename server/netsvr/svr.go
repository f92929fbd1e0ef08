package netsvr

import (
	"net/http"

	"github.com/zintix-labs/ablab/server/app"
)

// NetSvr 封裝路由行為與服務啟停，只交給最外層組裝器使用。
// 實作基於 net/http handler；換框架時提供新的 adapter 即可。
// NetSvr 同時是 app.Component，可直接交給 app.App 管理生命週期。
type NetSvr interface {
	NetRouter
	app.Component
	Address() string
}

// NetRouter 純路由行為，handler 子模組只拿得到這一層，無法控制 server 啟停。
type NetRouter interface {
	Use(middleware func(http.Handler) http.Handler)

	Get(path string, h http.HandlerFunc)
	Post(path string, h http.HandlerFunc)

	// Handle 掛載現成的 http.Handler（例如 /metrics）。
	Handle(path string, h http.Handler)

	Group(path string, fn func(NetRouter))
}
