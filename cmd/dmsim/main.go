// Command dmsim simulates a debug module together with the harts it
// controls, driven by a script or by an interactive console.
package main

func main() {
	Execute()
}
