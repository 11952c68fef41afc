package gateway

// indexPage is the race view. It loads the catalog, posts selections and
// commands, and applies render instructions received over /ws.
const indexPage = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>Race</title>
<style>
body { font-family: sans-serif; margin: 2rem; }
.card { cursor: pointer; padding: .5rem; border: 1px solid #ccc; }
.card.selected { background: #ffe066; }
#big-numbers { font-size: 4rem; }
#error { color: #b00020; }
</style>
</head>
<body>
<div id="race">
  <section><h3>Tracks</h3><div id="tracks"><h4>Loading Tracks...</h4></div></section>
  <section><h3>Racers</h3><div id="racers"><h4>Loading Racers...</h4></div></section>
  <button id="submit-create-race">Start Race</button>
</div>
<p id="error"></p>
<script>
(function () {
  function post(path, body) {
    return fetch(path, {
      method: "POST",
      headers: { "Content-Type": "application/json" },
      body: body ? JSON.stringify(body) : null
    }).then(function (resp) {
      if (resp.ok || resp.status === 204) { return null; }
      return resp.json().then(function (data) {
        document.getElementById("error").textContent = data.error;
      });
    });
  }

  function select(kind, card) {
    document.querySelectorAll(".card." + kind).forEach(function (c) { c.classList.remove("selected"); });
    card.classList.add("selected");
    post("/select/" + kind, { id: parseInt(card.id, 10), label: card.textContent });
  }

  document.addEventListener("click", function (ev) {
    var t = ev.target;
    if (t.matches(".card.track")) { select("track", t); }
    else if (t.matches(".card.racer")) { select("racer", t); }
    else if (t.id === "submit-create-race") {
      document.getElementById("error").textContent = "";
      post("/race/start");
    } else if (t.id === "gas-peddle") {
      if (ws.readyState === WebSocket.OPEN) {
        ws.send(JSON.stringify({ type: "accelerate" }));
      } else {
        post("/race/accelerate");
      }
    }
  });

  fetch("/api/catalog").then(function (resp) { return resp.json(); }).then(function (data) {
    if (data.error) { document.getElementById("error").textContent = data.error; return; }
    document.getElementById("tracks").innerHTML = data.tracks;
    document.getElementById("racers").innerHTML = data.racers;
  });

  var proto = location.protocol === "https:" ? "wss://" : "ws://";
  var ws = new WebSocket(proto + location.host + "/ws");
  ws.onmessage = function (ev) {
    var msg = JSON.parse(ev.data);
    var el = document.querySelector(msg.target);
    if (el) { el.innerHTML = msg.html; }
  };
})();
</script>
</body>
</html>
`
