package main

import "workervoucher/internal/app/server"

func main() {
	server.Run()
}
