package banner

import (
	"fmt"
)

const banner = `
███╗   ███╗██╗██████╗ ██████╗  ██████╗ ██████╗ ███████╗██╗   ██╗███╗   ██╗ ██████╗
████╗ ████║██║██╔══██╗██╔══██╗██╔═══██╗██╔══██╗██╔════╝╚██╗ ██╔╝████╗  ██║██╔════╝
██╔████╔██║██║██████╔╝██████╔╝██║   ██║██████╔╝███████╗ ╚████╔╝ ██╔██╗ ██║██║
██║╚██╔╝██║██║██╔══██╗██╔══██╗██║   ██║██╔══██╗╚════██║  ╚██╔╝  ██║╚██╗██║██║
██║ ╚═╝ ██║██║██║  ██║██║  ██║╚██████╔╝██║  ██║███████║   ██║   ██║ ╚████║╚██████╗
╚═╝     ╚═╝╚═╝╚═╝  ╚═╝╚═╝  ╚═╝ ╚═════╝ ╚═╝  ╚═╝╚══════╝   ╚═╝   ╚═╝  ╚═══╝ ╚═════╝
`

// Print shows the startup summary for the local facade.
func Print(addr, dataPath, mode, version string) {
	fmt.Print(banner)
	fmt.Println("== Config =====================================================")
	fmt.Printf("Listen:    %s\n", addr)
	fmt.Printf("Data Path: %s\n", dataPath)
	fmt.Printf("Remote:    %s mode\n", mode)
	if version != "" {
		fmt.Printf("Version:   %s\n", version)
	}
	fmt.Println("\n== Endpoints ==================================================")
	fmt.Println("GET  /v1/feed?limit=<n>&cursor=<c> - Feed page, local fallback on failure")
	fmt.Println("GET  /v1/users/<id>               - Profile, local-first")
	fmt.Println("GET  /v1/users/search?term=<t>    - User search with local degrade")
	fmt.Println("POST /v1/users/sync               - Full directory sync")
	fmt.Println("GET  /v1/chats/unread             - Unread message count")
	fmt.Println("GET  /metrics /healthz /readyz /docs/")
}
