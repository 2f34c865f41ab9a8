package server

//go:generate swag init -g internal/server/server.go -o internal/server/docs

// @title linkscout API
// @version 0.1
// @description Backlink opportunity discovery: scans, competitor gaps, broken links and resource pages.
// @contact.name linkscout maintainers
// @contact.url https://github.com/raysh454/linkscout
// @BasePath /
