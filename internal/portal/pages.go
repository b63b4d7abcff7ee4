package portal

const formPage = `<!DOCTYPE html><html><body>` +
	`<h1>Configure WiFi</h1>` +
	`<form method='post' action='/connect'>` +
	`<label>SSID:</label><input type='text' name='ssid' maxlength='32'><br>` +
	`<label>Password:</label><input type='password' name='password' maxlength='64'><br>` +
	`<input type='submit' value='Connect'>` +
	`</form></body></html>`

const ackPage = `Connecting... <a href='/'>Back</a>`

const failurePage = `Could not save credentials, please try again. <a href='/'>Back</a>`

const notAppliedPage = `Credentials saved but could not be applied, please try again. <a href='/'>Back</a>`
